// Package storage provides the artifact stores plans are exported to.
package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/logs"
	"github.com/bitswalk/kforge/src/common/paths"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the storage package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Backend stores objects under slash-separated keys
type Backend interface {
	// Put stores the content of r under key, replacing any existing object.
	// A positive size is checked against the number of bytes read.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens an object; missing objects match ErrStorageNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns object metadata; missing objects match ErrStorageNotFound
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// List returns the objects whose key starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// URL returns a location the object can be fetched from
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)

	Ping(ctx context.Context) error
	Type() string
	Location() string
}

// ObjectInfo holds metadata about a stored object
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Config selects and configures a backend
type Config struct {
	// Type is "local" or "s3"
	Type string

	Local LocalConfig
	S3    S3Config
}

// DefaultConfig stores artifacts under the user data directory
func DefaultConfig() Config {
	return Config{
		Type: "local",
		Local: LocalConfig{
			BasePath: filepath.Join(paths.DataDir(), "artifacts"),
		},
	}
}

// New creates the backend described by cfg
func New(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Type) {
	case "local", "":
		b, err := NewLocal(cfg.Local)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "s3":
		b, err := NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.ErrStorageUnavailable.WithMessagef("unknown storage type %q", cfg.Type)
	}
}

// CleanKey turns key into a relative slash path that cannot climb out of
// the store root
func CleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
}
