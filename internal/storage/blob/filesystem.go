package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./captured_frames"
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	return &Filesystem{root: root}, nil
}

func (s *Filesystem) Driver() Driver { return DriverFilesystem }

func (s *Filesystem) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	k, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(k))

	if _, err := os.Stat(dst); err == nil {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Info{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return Info{}, err
	}

	if err := tmp.Close(); err != nil {
		return Info{}, err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Info{}, err
	}

	return Info{Key: k, Size: size, ContentType: opts.ContentType, URL: "file://" + filepath.ToSlash(dst)}, nil
}

func (s *Filesystem) Get(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(k)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", key, err)
	}

	return f, err
}
