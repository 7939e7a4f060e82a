package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if info.Name != "photo.jpg" {
		t.Errorf("Name = %q, want photo.jpg", info.Name)
	}
	if info.Size != 17 {
		t.Errorf("Size = %d, want 17", info.Size)
	}
	if !strings.HasPrefix(info.Type, "image/jpeg") {
		t.Errorf("Type = %q, want image/jpeg", info.Type)
	}
}

func TestValidateMissingFile(t *testing.T) {
	if _, err := Validate(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateDirectory(t *testing.T) {
	if _, err := Validate(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestValidateUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.weirdext")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if info.Type != "application/octet-stream" {
		t.Errorf("Type = %q, want application/octet-stream", info.Type)
	}
}

func TestUniqueName(t *testing.T) {
	dir := t.TempDir()

	first := UniqueName(dir, "pic.png")
	if first != filepath.Join(dir, "pic.png") {
		t.Fatalf("first = %q", first)
	}
	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	second := UniqueName(dir, "pic.png")
	if second != filepath.Join(dir, "pic (1).png") {
		t.Fatalf("second = %q", second)
	}
	if err := os.WriteFile(second, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	third := UniqueName(dir, "pic.png")
	if third != filepath.Join(dir, "pic (2).png") {
		t.Fatalf("third = %q", third)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{16384, "16.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tc := range cases {
		if got := FormatSize(tc.in); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
