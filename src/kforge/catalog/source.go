package catalog

import (
	"context"
	"sync"
	"sync/atomic"
)

// Source fetches the current list of kernel releases from somewhere
type Source interface {
	Fetch(ctx context.Context) ([]KernelVersion, error)
}

// StaticSource is an in-memory Source. It serves a fixed list, or a fixed
// error, and counts how often it was asked.
type StaticSource struct {
	mu       sync.Mutex
	versions []KernelVersion
	err      error
	calls    atomic.Int64
}

// NewStaticSource returns a source serving versions
func NewStaticSource(versions ...KernelVersion) *StaticSource {
	return &StaticSource{versions: versions}
}

// Set replaces what the source serves from now on
func (s *StaticSource) Set(versions []KernelVersion, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = versions
	s.err = err
}

// Fetch implements Source
func (s *StaticSource) Fetch(ctx context.Context) ([]KernelVersion, error) {
	s.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return cloneVersions(s.versions), nil
}

// Calls reports how many times Fetch has been invoked
func (s *StaticSource) Calls() int {
	return int(s.calls.Load())
}
