package metadata

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/santiagomed/launchpad/fs"
)

// LocalStore writes objects below a directory and returns file:// URLs. It is
// used for dry runs and when no bucket is configured.
type LocalStore struct {
	fs  *fs.FileSystem
	dir string
}

func NewLocalStore(fsys *fs.FileSystem, dir string) *LocalStore {
	return &LocalStore{fs: fsys, dir: fs.ExpandHome(dir)}
}

func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(body, size))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := s.fs.WriteFile(target, data); err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(target), nil
}
