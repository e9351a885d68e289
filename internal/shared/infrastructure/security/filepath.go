// Package security validates user-supplied file paths before they are opened.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxImportBytes bounds the size of an imported calendar file.
const MaxImportBytes int64 = 10 << 20

var (
	ErrEmptyPath            = errors.New("file path cannot be empty")
	ErrForbiddenCharacter   = errors.New("file path contains a forbidden character")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrNotRegularFile       = errors.New("not a regular file")
	ErrFileTooLarge         = errors.New("file too large")
)

// forbidden holds shell metacharacters.
const forbidden = ";&|$`(){}<>!\n\r"

// CleanPath returns the absolute, symlink-resolved form of path. Paths that
// do not exist yet are returned cleaned but unresolved.
func CleanPath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if i := strings.IndexAny(path, forbidden); i >= 0 {
		return "", fmt.Errorf("%w %q: %s", ErrForbiddenCharacter, path[i], path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return resolved, nil
}

// OpenImportFile opens a regular file whose extension is one of exts
// (case-insensitive) and whose size is at most MaxImportBytes.
func OpenImportFile(path string, exts ...string) (*os.File, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(clean))
	if len(exts) > 0 && !slices.Contains(exts, ext) {
		return nil, fmt.Errorf("%w %q, want one of %v", ErrUnsupportedExtension, ext, exts)
	}

	info, err := os.Stat(clean)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, clean)
	}
	if info.Size() > MaxImportBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}
	// #nosec G304 - path is validated above
	return os.Open(clean)
}
