// Package blob stores annotated snapshot images on the local filesystem or in
// an S3-compatible bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hieu03092004/CameraTrackingBE/internal/config"
)

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

type Info struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}

type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Snapshots) (Store, error) {
	const op = "storage.blob.Open"

	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		s, err := NewFilesystem(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return s, nil
	case DriverS3:
		s, err := NewS3(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return s, nil
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}

	return path.Clean(strings.ReplaceAll(key, "\\", "/")), nil
}
