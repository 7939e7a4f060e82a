package files

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// Info holds metadata about a file to be sent.
type Info struct {
	// Path is the absolute path to the file.
	Path string

	// Name is the filename without directory.
	Name string

	// Size is the file size in bytes.
	Size int64

	// Type is the MIME type, detected from the extension.
	Type string
}

// Validate checks the file exists and is readable, and returns its info.
func Validate(path string) (Info, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Info{}, fmt.Errorf("%s: resolve path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%s: file does not exist", path)
		}
		return Info{}, fmt.Errorf("%s: stat: %w", path, err)
	}
	if stat.IsDir() {
		return Info{}, fmt.Errorf("%s: is a directory", path)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return Info{}, fmt.Errorf("%s: cannot open file: %w", path, err)
	}
	f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return Info{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: mimeType,
	}, nil
}

// UniqueName returns a path in dir that does not collide with an existing
// file, appending (1), (2), ... as needed.
func UniqueName(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	for counter := 1; ; counter++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, counter, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// FormatSize renders a byte count in human-friendly units.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
