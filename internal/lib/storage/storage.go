// Package storage keeps saved export files.
//
// Two backends exist: the local filesystem, which is the default and what the
// portal has always used, and any S3 compatible object store. Both keep a
// small metadata record next to each blob so listings do not have to open
// the files themselves.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deppfellow/genoportal/internal/config"
)

// Backend driver names, as used in export.driver.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// metaSuffix marks metadata sidecars. Keys ending in it are never listed.
const metaSuffix = ".meta"

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("storage: blob not found")

// PutOptions are optional attributes stored with a blob.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the minimal blob API the export service needs.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns every blob under prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() string
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.ExportConfig) (Store, error) {
	switch cfg.Driver {
	case DriverFS, "":
		return NewFSStore(cfg.Dir)
	case DriverS3:
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// validateKey rejects keys that could escape the store root.
func validateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return errors.New("storage: empty key")
	case strings.Contains(key, ".."):
		return fmt.Errorf("storage: invalid key %q", key)
	case strings.HasPrefix(key, "/") || strings.Contains(key, `\`):
		return fmt.Errorf("storage: invalid key %q", key)
	case strings.HasSuffix(key, metaSuffix):
		return fmt.Errorf("storage: reserved key suffix in %q", key)
	}
	return nil
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
