package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/aube-labs-dev/photo-bridge/internal/logging"
	"github.com/aube-labs-dev/photo-bridge/internal/server"
	"github.com/aube-labs-dev/photo-bridge/internal/signaling"
)

func main() {
	logging.Init()

	port := flag.String("port", defaultPort(), "port to listen on")
	flag.Parse()

	hub := signaling.NewHub()
	go hub.Run()

	http.HandleFunc("/health", server.Health)
	http.HandleFunc("/ws", server.ServeWs(hub))

	addr := ":" + *port
	slog.Info("starting signaling server", "addr", addr)

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func defaultPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "3000"
}
