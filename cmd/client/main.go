package main

import (
	"github.com/aube-labs-dev/photo-bridge/internal/cli"
	"github.com/aube-labs-dev/photo-bridge/internal/logging"
)

func main() {
	logging.Init()
	cli.Execute()
}
