package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store defines the interface for blob storage backends.
// Blobs are named by generated identifiers decoupled from display names,
// so concurrent writes never collide.
type Store interface {
	Save(data io.Reader) (string, error)
	Exists(path string) bool
	Remove(path string) error
	VariantPath(path string, width int) string
	WriteVariant(path string, width int, data io.Reader) error
	EnsureDir() error
}

// FileSystemStore stores blobs on the local filesystem.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// EnsureDir creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data to a freshly named blob and returns its path.
func (fs *FileSystemStore) Save(data io.Reader) (string, error) {
	path := filepath.Join(fs.basePath, uuid.NewString())
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Exists reports whether a blob is present at path.
func (fs *FileSystemStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the blob at path. A missing blob is not an error.
func (fs *FileSystemStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}
	return nil
}

// VariantPath returns the path of the derived variant of the blob at path
// resized to width.
func (fs *FileSystemStore) VariantPath(path string, width int) string {
	return fmt.Sprintf("%s_%d", path, width)
}

// WriteVariant writes a derived variant next to the original blob,
// overwriting any previous content at the variant path.
func (fs *FileSystemStore) WriteVariant(path string, width int, data io.Reader) error {
	return writeFile(fs.VariantPath(path, width), data)
}

func writeFile(path string, data io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		// Clean up partial file on error
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
