package fs

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// MaxLogoSize is the largest logo the wizard accepts.
const MaxLogoSize = 5 << 20

var ErrNotImage = errors.New("file is not an image")

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// Logo is an image read from disk for the token metadata.
type Logo struct {
	Name        string
	Data        []byte
	ContentType string
}

// ReadLogo loads an image file, rejecting empty, oversized and non-image files.
func (fs *FileSystem) ReadLogo(path string) (Logo, error) {
	path = ExpandHome(path)
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return Logo{}, fmt.Errorf("error reading logo %s: %w", path, err)
	}
	if info.IsDir() {
		return Logo{}, fmt.Errorf("logo %s is a directory", path)
	}
	if info.Size() == 0 {
		return Logo{}, fmt.Errorf("logo %s is empty", path)
	}
	if info.Size() > MaxLogoSize {
		return Logo{}, fmt.Errorf("logo %s is %d bytes, limit is %d", path, info.Size(), MaxLogoSize)
	}

	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return Logo{}, fmt.Errorf("error reading logo %s: %w", path, err)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return Logo{}, fmt.Errorf("%w: %s (%s)", ErrNotImage, path, contentType)
	}
	return Logo{Name: filepath.Base(path), Data: data, ContentType: contentType}, nil
}

// WriteFile creates or overwrites path, creating parent directories
func (fs *FileSystem) WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	if err := afero.WriteFile(fs.Fs, path, content, 0644); err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(fs.Fs, ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path exists
func (fs *FileSystem) Exists(path string) bool {
	ok, err := afero.Exists(fs.Fs, ExpandHome(path))
	return err == nil && ok
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(ExpandHome(path))
	if err != nil {
		return false
	}
	return info.IsDir()
}
