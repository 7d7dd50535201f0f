package objectstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// LocalObjectRepository writes artifacts to a filesystem.
type LocalObjectRepository struct {
	fs  afero.Fs
	dir string
}

// Upload writes r to dir/key, creating parent directories as needed.
func (r *LocalObjectRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := key
	if r.dir != "" {
		path = filepath.Join(r.dir, key)
	}
	log.Debugf("Writing %s", path)

	size := readerSize(reader)
	if err := afero.WriteReader(r.fs, path, withProgress(reader, size, quiet)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// GetBucketName returns the root directory.
func (r *LocalObjectRepository) GetBucketName() string {
	return r.dir
}

// GetStorageType returns the storage type
func (r *LocalObjectRepository) GetStorageType() string {
	return string(LocalType)
}
