package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/paths"
	"github.com/spf13/afero"
)

// LocalConfig configures the filesystem backend
type LocalConfig struct {
	// BasePath is the root directory for artifacts
	BasePath string
}

// LocalBackend stores objects as files below a root directory
type LocalBackend struct {
	fs       afero.Fs
	location string
}

// NewLocal creates a backend rooted at cfg.BasePath, creating it if needed
func NewLocal(cfg LocalConfig) (*LocalBackend, error) {
	base := paths.Expand(cfg.BasePath)
	if base == "" {
		return nil, errors.ErrStorageUnavailable.WithMessage("local storage path is empty")
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", base, err)
	}
	return NewLocalFs(afero.NewBasePathFs(afero.NewOsFs(), base), base), nil
}

// NewLocalFs creates a backend on an existing filesystem whose root is the
// store root. location is only used for display and URLs.
func NewLocalFs(fs afero.Fs, location string) *LocalBackend {
	return &LocalBackend{fs: fs, location: location}
}

func (b *LocalBackend) name(key string) string {
	return "/" + CleanKey(key)
}

// Put writes to a temporary file next to the target and renames it into place
func (b *LocalBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target := b.name(key)
	dir := path.Dir(target)
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return errors.ErrStorageUploadFailed.WithCause(fmt.Errorf("failed to create directory %s: %w", dir, err))
	}

	tmp, err := afero.TempFile(b.fs, dir, ".upload-*")
	if err != nil {
		return errors.ErrStorageUploadFailed.WithCause(err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size > 0 && written != size {
		err = fmt.Errorf("size mismatch: expected %d bytes, wrote %d bytes", size, written)
	}
	if err == nil {
		err = b.fs.Rename(tmpName, target)
	}
	if err != nil {
		_ = b.fs.Remove(tmpName)
		return errors.ErrStorageUploadFailed.WithMessagef("failed to store %s", key).WithCause(err)
	}

	log.Debug("Stored object", "key", CleanKey(key), "bytes", written)
	return nil
}

// Get opens an object for reading
func (b *LocalBackend) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	info, err := b.Stat(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	f, err := b.fs.Open(b.name(key))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, info, nil
}

// Delete removes an object and any directories it leaves empty
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	name := b.name(key)
	if err := b.fs.Remove(name); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	b.pruneEmptyDirs(path.Dir(name))
	return nil
}

func (b *LocalBackend) pruneEmptyDirs(dir string) {
	for dir != "/" && dir != "." {
		entries, err := afero.ReadDir(b.fs, dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := b.fs.Remove(dir); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}

// Exists reports whether an object is stored under key
func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Stat(ctx, key)
	if errors.Is(err, errors.ErrStorageNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Stat returns object metadata
func (b *LocalBackend) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	fi, err := b.fs.Stat(b.name(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrStorageNotFound.WithMessagef("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if fi.IsDir() {
		return nil, errors.ErrStorageNotFound.WithMessagef("object not found: %s", key)
	}
	return objectInfo(CleanKey(key), fi), nil
}

func objectInfo(key string, fi os.FileInfo) *ObjectInfo {
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		ContentType:  contentType,
		ETag:         fmt.Sprintf("\"%x-%x\"", fi.ModTime().Unix(), fi.Size()),
		LastModified: fi.ModTime(),
	}
}

// List walks the store and returns objects under prefix, sorted by key
func (b *LocalBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	prefix = strings.TrimPrefix(filepath.ToSlash(prefix), "/")

	var objects []ObjectInfo
	err := afero.Walk(b.fs, "/", func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if fi.IsDir() || strings.HasPrefix(fi.Name(), ".upload-") {
			return nil
		}
		key := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		objects = append(objects, *objectInfo(key, fi))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// URL returns a file:// URL; expiry does not apply
func (b *LocalBackend) URL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := b.Stat(ctx, key); err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(filepath.Join(b.location, filepath.FromSlash(CleanKey(key)))), nil
}

// Ping checks that the root is reachable
func (b *LocalBackend) Ping(ctx context.Context) error {
	if _, err := b.fs.Stat("/"); err != nil {
		return errors.ErrStorageUnavailable.WithCause(err)
	}
	return nil
}

// Type returns "local"
func (b *LocalBackend) Type() string {
	return "local"
}

// Location returns the root directory
func (b *LocalBackend) Location() string {
	return b.location
}
