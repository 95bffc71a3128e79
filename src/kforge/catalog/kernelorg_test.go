package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/google/go-cmp/cmp"
)

func serve(t *testing.T, status int, body string) *KernelOrgSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "kforge-test" {
			t.Errorf("User-Agent = %q, want kforge-test", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewKernelOrgSource(WithURL(srv.URL), WithHTTPClient(srv.Client()), WithUserAgent("kforge-test"))
}

func TestKernelOrgSource_Fetch(t *testing.T) {
	src := serve(t, http.StatusOK, `{
		"latest_stable": {"version": "6.17.4"},
		"releases": [
			{"moniker": "mainline", "version": "6.18-rc2", "iseol": false, "released": {"timestamp": 1760908800, "isodate": "2025-10-19"}},
			{"moniker": "stable", "version": "6.17.4", "iseol": false, "released": {"isodate": "2025-10-19"}},
			{"moniker": "longterm", "version": "5.4.300", "iseol": true, "released": {"isodate": "2025-10-12"}},
			{"moniker": "linux-next", "version": "next-20251017", "iseol": false, "released": {"isodate": "2025-10-17"}}
		]
	}`)

	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	want := []struct {
		version string
		channel Channel
		eol     bool
		parsed  bool
	}{
		{"6.18.0-rc2", ChannelMainline, false, true},
		{"6.17.4", ChannelStable, false, true},
		{"5.4.300", ChannelLongterm, true, true},
		{"next-20251017", ChannelEOLUnspecified, false, false},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d versions, want %d", len(got), len(want))
	}
	for i, w := range want {
		kv := got[i]
		if kv.Version != w.version || kv.Channel != w.channel || kv.EOL != w.eol || (kv.Semver != nil) != w.parsed {
			t.Errorf("entry %d = %+v, want %+v", i, kv, w)
		}
		if kv.Released == nil {
			t.Errorf("entry %d has no release date", i)
		}
	}
}

func TestKernelOrgSource_DegradesPerEntry(t *testing.T) {
	src := serve(t, http.StatusOK, `{"releases": [
		{"moniker": 42, "version": "6.17.4", "iseol": "no", "released": "yesterday"},
		{"moniker": "stable"},
		{"version": 6.12},
		"garbage",
		{"moniker": "longterm", "version": "6.12.54"}
	]}`)

	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if diff := cmp.Diff([]string{"6.17.4", "6.12.54"}, ids(got)); diff != "" {
		t.Fatalf("versions mismatch (-want +got):\n%s", diff)
	}
	if first := got[0]; first.Channel != ChannelEOLUnspecified || first.EOL || first.Released != nil {
		t.Errorf("bad fields should fall back to zero values, got %+v", first)
	}
}

func TestKernelOrgSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *errors.Error
	}{
		{"server error", http.StatusInternalServerError, "oops", errors.ErrCatalogFetch},
		{"not found", http.StatusNotFound, "", errors.ErrCatalogFetch},
		{"malformed", http.StatusOK, "<html>", errors.ErrCatalogFetch},
		{"no releases", http.StatusOK, `{"releases": []}`, errors.ErrCatalogEmpty},
		{"no usable releases", http.StatusOK, `{"releases": [{"moniker": "stable"}]}`, errors.ErrCatalogEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := serve(t, tt.status, tt.body)
			_, err := src.Fetch(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKernelOrgSource_Defaults(t *testing.T) {
	src := NewKernelOrgSource(WithURL(""), WithHTTPClient(nil))
	if src.URL() != DefaultReleasesURL {
		t.Errorf("URL() = %q, want %q", src.URL(), DefaultReleasesURL)
	}
	if src.httpClient == nil {
		t.Error("nil client option should keep the default client")
	}
}
