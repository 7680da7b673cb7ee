// Package imagestore keeps uploaded part images on disk and maps them to the
// public /inventory/images/ paths recorded on inventory items.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"partscope/internal/services"
)

// PublicPrefix is the URL prefix under which stored images are served.
const PublicPrefix = "/inventory/images/"

// Ref identifies a stored image.
type Ref struct {
	File string
	Path string
}

// Store writes and reads image blobs under a single directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it when missing.
func New(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "imagestore", "init", "images directory is required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Decodable reports the image format of data, or a validation error when the
// payload is empty or does not decode completely. Pixel data is decoded, so a
// truncated file with a valid header is rejected.
func Decodable(data []byte) (string, error) {
	if len(data) == 0 {
		return "", services.Validationf("image payload is empty")
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", services.Validationf("image payload is not a supported image: %v", err)
	}
	return format, nil
}

// Save writes data under a fresh uuid-based file name. The file appears
// atomically: it is written to a temporary name and renamed into place.
func (s *Store) Save(ctx context.Context, data []byte) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	format, err := Decodable(data)
	if err != nil {
		return Ref{}, err
	}
	file := uuid.NewString() + "." + extension(format)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return Ref{}, fmt.Errorf("create temp image: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Ref{}, fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Ref{}, fmt.Errorf("close image: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return Ref{}, fmt.Errorf("chmod image: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, file)); err != nil {
		return Ref{}, fmt.Errorf("store image: %w", err)
	}
	return Ref{File: file, Path: PublicPrefix + file}, nil
}

// Open returns the bytes behind a public path or bare file name.
func (s *Store) Open(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, services.NotFoundf("image %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Remove deletes the image behind path. Removing a missing image is not an error.
func (s *Store) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (s *Store) resolve(path string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(path), PublicPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", services.Validationf("invalid image path %q", path)
	}
	return filepath.Join(s.dir, name), nil
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	default:
		return format
	}
}
