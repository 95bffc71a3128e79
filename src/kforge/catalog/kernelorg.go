package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bitswalk/kforge/src/common/errors"
)

// DefaultReleasesURL is kernel.org's machine-readable release list
const DefaultReleasesURL = "https://www.kernel.org/releases.json"

const maxReleasesBody = 8 << 20

// KernelOrgSource reads releases.json from kernel.org
type KernelOrgSource struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// KernelOrgOption configures a KernelOrgSource
type KernelOrgOption func(*KernelOrgSource)

// WithURL points the source at another releases.json, e.g. a mirror or a test server
func WithURL(url string) KernelOrgOption {
	return func(s *KernelOrgSource) {
		if url != "" {
			s.url = url
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) KernelOrgOption {
	return func(s *KernelOrgSource) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent upstream
func WithUserAgent(ua string) KernelOrgOption {
	return func(s *KernelOrgSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// NewKernelOrgSource creates a kernel.org source with a 30 second client timeout
func NewKernelOrgSource(opts ...KernelOrgOption) *KernelOrgSource {
	s := &KernelOrgSource{
		url:       DefaultReleasesURL,
		userAgent: "kforge/1.0",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the endpoint this source reads
func (s *KernelOrgSource) URL() string {
	return s.url
}

// Fetch implements Source. A malformed document or non-2xx answer is an
// error; a malformed single entry only loses the fields it got wrong.
func (s *KernelOrgSource) Fetch(ctx context.Context) ([]KernelVersion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.ErrCatalogFetch.WithCause(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.ErrCatalogFetch.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.ErrCatalogFetch.WithMessagef("kernel.org returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleasesBody))
	if err != nil {
		return nil, errors.ErrCatalogFetch.WithCause(fmt.Errorf("failed to read response: %w", err))
	}

	versions, err := parseReleases(body)
	if err != nil {
		return nil, err
	}

	log.Debug("Fetched kernel releases", "url", s.url, "count", len(versions))
	return versions, nil
}

// parseReleases decodes a releases.json document:
//
//	{"releases": [{"version": "6.17.4", "moniker": "stable",
//	  "released": {"isodate": "2025-10-19"}, "iseol": false}, ...]}
func parseReleases(body []byte) ([]KernelVersion, error) {
	var doc struct {
		Releases []json.RawMessage `json:"releases"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.ErrCatalogFetch.WithMessage("Malformed kernel.org payload").WithCause(err)
	}
	if len(doc.Releases) == 0 {
		return nil, errors.ErrCatalogEmpty
	}

	versions := make([]KernelVersion, 0, len(doc.Releases))
	for _, raw := range doc.Releases {
		kv, ok := decodeRelease(raw)
		if !ok {
			log.Debug("Skipping release entry without a version", "entry", string(raw))
			continue
		}
		versions = append(versions, kv)
	}

	if len(versions) == 0 {
		return nil, errors.ErrCatalogEmpty.WithMessage("No usable entries in kernel.org payload")
	}
	return versions, nil
}

// decodeRelease reads one entry field by field so that a wrongly typed
// field degrades to its zero value instead of failing the entry. Only a
// missing or non-string version drops the entry.
func decodeRelease(raw json.RawMessage) (KernelVersion, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return KernelVersion{}, false
	}

	var version string
	if err := json.Unmarshal(fields["version"], &version); err != nil || version == "" {
		return KernelVersion{}, false
	}

	var moniker string
	_ = json.Unmarshal(fields["moniker"], &moniker)

	var eol bool
	_ = json.Unmarshal(fields["iseol"], &eol)

	var released *string
	var date struct {
		ISODate string `json:"isodate"`
	}
	if err := json.Unmarshal(fields["released"], &date); err == nil && date.ISODate != "" {
		released = &date.ISODate
	}

	return NewKernelVersion(version, ParseChannel(moniker), released, eol), true
}
