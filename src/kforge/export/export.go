// Package export writes plan artifacts to a storage backend.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/logs"
	"github.com/bitswalk/kforge/src/kforge/plan"
	"github.com/bitswalk/kforge/src/kforge/storage"
	"github.com/ulikunitz/xz"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the export package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Artifact names under a plan's prefix
const (
	ConfigName           = "config"
	CompressedConfigName = "config.xz"
	DocumentName         = "plan.json"
)

// Artifact is one uploaded object
type Artifact struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Manifest lists what Export wrote for a plan
type Manifest struct {
	Version     string     `json:"version"`
	Fingerprint string     `json:"fingerprint"`
	Backend     string     `json:"backend"`
	Location    string     `json:"location"`
	Prefix      string     `json:"prefix"`
	Artifacts   []Artifact `json:"artifacts"`
}

// Keys returns the artifact keys in upload order
func (m *Manifest) Keys() []string {
	keys := make([]string, len(m.Artifacts))
	for i, a := range m.Artifacts {
		keys[i] = a.Key
	}
	return keys
}

// Exporter uploads plans to a backend
type Exporter struct {
	backend     storage.Backend
	parallelism int
}

// Option configures an Exporter
type Option func(*Exporter)

// WithParallelism sets the job count recorded in plan.json's make command
func WithParallelism(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New creates an exporter writing to backend
func New(backend storage.Backend, opts ...Option) *Exporter {
	e := &Exporter{backend: backend, parallelism: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prefix returns the key prefix used for a plan's artifacts
func Prefix(version, fingerprint string) string {
	return path.Join("plans", storage.CleanKey(version), storage.CleanKey(fingerprint))
}

// Export uploads the plan's config, its xz-compressed copy and plan.json.
// Invalid plans are exported too; plan.json carries their violations.
func (e *Exporter) Export(ctx context.Context, p *plan.BuildPlan) (*Manifest, error) {
	if e.backend == nil {
		return nil, errors.ErrStorageUnavailable.WithMessage("no storage backend configured")
	}

	config := []byte(p.Emit())

	compressed, err := compress(config)
	if err != nil {
		return nil, errors.ErrInternal.WithMessage("failed to compress config").WithCause(err)
	}

	doc, err := json.MarshalIndent(p.Document(e.parallelism), "", "  ")
	if err != nil {
		return nil, errors.ErrInternal.WithMessage("failed to encode plan document").WithCause(err)
	}

	prefix := Prefix(p.Version(), p.Fingerprint())
	manifest := &Manifest{
		Version:     p.Version(),
		Fingerprint: p.Fingerprint(),
		Backend:     e.backend.Type(),
		Location:    e.backend.Location(),
		Prefix:      prefix,
	}

	uploads := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{ConfigName, config, "text/plain; charset=utf-8"},
		{CompressedConfigName, compressed, "application/x-xz"},
		{DocumentName, doc, "application/json"},
	}
	for _, u := range uploads {
		key := path.Join(prefix, u.name)
		if err := e.backend.Put(ctx, key, bytes.NewReader(u.data), int64(len(u.data)), u.contentType); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", u.name, err)
		}
		manifest.Artifacts = append(manifest.Artifacts, Artifact{
			Key:         key,
			Size:        int64(len(u.data)),
			ContentType: u.contentType,
		})
	}

	log.Info("Exported plan",
		"version", manifest.Version,
		"fingerprint", manifest.Fingerprint,
		"backend", manifest.Backend,
		"prefix", prefix)

	return manifest, nil
}

// ReadConfig downloads and decompresses an exported config
func (e *Exporter) ReadConfig(ctx context.Context, version, fingerprint string) (string, error) {
	rc, _, err := e.backend.Get(ctx, path.Join(Prefix(version, fingerprint), CompressedConfigName))
	if err != nil {
		return "", err
	}
	defer rc.Close()

	xr, err := xz.NewReader(rc)
	if err != nil {
		return "", fmt.Errorf("failed to open xz stream: %w", err)
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return "", fmt.Errorf("failed to decompress config: %w", err)
	}
	return string(data), nil
}

// ReadDocument downloads an exported plan.json
func (e *Exporter) ReadDocument(ctx context.Context, version, fingerprint string) (*plan.Document, error) {
	rc, _, err := e.backend.Get(ctx, path.Join(Prefix(version, fingerprint), DocumentName))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var doc plan.Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, errors.ErrInvalidJSON.WithMessagef("malformed %s", DocumentName).WithCause(err)
	}
	return &doc, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Ping checks that the backend is reachable
func (e *Exporter) Ping(ctx context.Context) error {
	if e.backend == nil {
		return errors.ErrStorageUnavailable.WithMessage("no storage backend configured")
	}
	return e.backend.Ping(ctx)
}
