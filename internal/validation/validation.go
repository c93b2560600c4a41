// internal/validation/validation.go
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSizeBytes caps input media size (2GB).
const MaxFileSizeBytes = 2 * 1024 * 1024 * 1024

// VideoFormats lists accepted video input extensions.
var VideoFormats = []string{".mp4", ".mkv", ".mov", ".avi", ".webm"}

// ImageFormats lists accepted still-image input extensions.
var ImageFormats = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// InputKind classifies what a validated input path points at.
type InputKind int

const (
	KindVideo InputKind = iota
	KindImage
	KindDirectory
)

// CleanPath trims whitespace and the surrounding quotes file managers paste
// in, then resolves to a cleaned absolute path.
func CleanPath(input string) (string, error) {
	cleaned := strings.TrimSpace(input)
	if len(cleaned) >= 2 {
		if (cleaned[0] == '\'' && cleaned[len(cleaned)-1] == '\'') ||
			(cleaned[0] == '"' && cleaned[len(cleaned)-1] == '"') {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(cleaned, "\x00") {
		return "", fmt.Errorf("path contains null bytes")
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid path format: %v", err)
	}
	return filepath.Clean(abs), nil
}

// ValidateInputPath checks that the input exists and is a usable media file
// or frame directory, returning the cleaned path and its kind.
func ValidateInputPath(input string) (string, InputKind, error) {
	path, err := CleanPath(input)
	if err != nil {
		return "", 0, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", 0, fmt.Errorf("input does not exist: %s", path)
	}
	if err != nil {
		return "", 0, fmt.Errorf("cannot access input: %v", err)
	}

	if info.IsDir() {
		return path, KindDirectory, nil
	}

	if info.Size() == 0 {
		return "", 0, fmt.Errorf("input file is empty: %s", path)
	}
	if info.Size() > MaxFileSizeBytes {
		sizeMB := float64(info.Size()) / (1024 * 1024)
		return "", 0, fmt.Errorf("file size (%.1f MB) exceeds maximum of %d MB",
			sizeMB, MaxFileSizeBytes/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if hasExt(VideoFormats, ext) {
		return path, KindVideo, nil
	}
	if hasExt(ImageFormats, ext) {
		return path, KindImage, nil
	}
	return "", 0, fmt.Errorf("unsupported input format %s, supported: %s",
		ext, strings.Join(append(append([]string{}, VideoFormats...), ImageFormats...), ", "))
}

// ValidateOutputDir checks that the output directory either exists as a
// directory or can be created under an existing parent.
func ValidateOutputDir(output string) (string, error) {
	path, err := CleanPath(output)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("output path exists and is not a directory: %s", path)
		}
		return path, nil
	}

	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("output parent directory does not exist: %s", parent)
	}
	if err != nil {
		return "", fmt.Errorf("cannot access output parent: %v", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output parent is not a directory: %s", parent)
	}
	return path, nil
}

// ValidateOutputFile checks that a single output file can be written,
// reporting whether it already exists so callers can confirm overwrite.
func ValidateOutputFile(output string) (path string, exists bool, err error) {
	path, err = CleanPath(output)
	if err != nil {
		return "", false, err
	}

	if info, statErr := os.Stat(path); statErr == nil {
		if info.IsDir() {
			return "", false, fmt.Errorf("output path is a directory: %s", path)
		}
		exists = true
	}

	parent := filepath.Dir(path)
	info, statErr := os.Stat(parent)
	if os.IsNotExist(statErr) {
		return "", false, fmt.Errorf("output directory does not exist: %s", parent)
	}
	if statErr != nil {
		return "", false, fmt.Errorf("cannot access output directory: %v", statErr)
	}
	if !info.IsDir() {
		return "", false, fmt.Errorf("output parent is not a directory: %s", parent)
	}
	return path, exists, nil
}

func hasExt(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}
