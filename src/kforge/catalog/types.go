package catalog

import (
	"strings"
	"time"

	"github.com/bitswalk/kforge/src/kforge/kernel"
)

// Channel is the support track of a kernel release
type Channel string

const (
	ChannelMainline       Channel = "mainline"
	ChannelStable         Channel = "stable"
	ChannelLongterm       Channel = "longterm"
	ChannelEOLUnspecified Channel = "eol-unspecified"
)

// ParseChannel maps an upstream category onto a Channel. Only the
// categories kernel.org itself publishes are recognized; everything else,
// including linux-next, is eol-unspecified.
func ParseChannel(moniker string) Channel {
	switch Channel(strings.ToLower(strings.TrimSpace(moniker))) {
	case ChannelMainline:
		return ChannelMainline
	case ChannelStable:
		return ChannelStable
	case ChannelLongterm:
		return ChannelLongterm
	default:
		return ChannelEOLUnspecified
	}
}

// KernelVersion is one entry of the catalog
type KernelVersion struct {
	// Version is the normalized identifier, unique within a snapshot
	Version string `json:"version"`

	// Semver is nil when Version is not a parseable release number
	Semver *kernel.Semver `json:"-"`

	Channel  Channel `json:"channel"`
	Released *string `json:"released"`
	EOL      bool    `json:"eol"`
}

// NewKernelVersion builds an entry from raw upstream values, normalizing
// the identifier and parsing it when possible
func NewKernelVersion(raw string, channel Channel, released *string, eol bool) KernelVersion {
	kv := KernelVersion{
		Version:  kernel.Normalize(raw),
		Channel:  channel,
		Released: released,
		EOL:      eol,
	}
	if kv.Channel == "" {
		kv.Channel = ChannelEOLUnspecified
	}
	if sv, err := kernel.ParseSemver(kv.Version); err == nil {
		kv.Semver = &sv
	}
	return kv
}

func (kv KernelVersion) clone() KernelVersion {
	out := kv
	if kv.Semver != nil {
		sv := *kv.Semver
		out.Semver = &sv
	}
	if kv.Released != nil {
		r := *kv.Released
		out.Released = &r
	}
	return out
}

// Snapshot is the persisted form of a catalog refresh
type Snapshot struct {
	Versions []KernelVersion `json:"versions"`
	CachedAt time.Time       `json:"cached_at"`
}

// Origin records where a listing came from
type Origin string

const (
	OriginCache      Origin = "cache"
	OriginRemote     Origin = "remote"
	OriginStaleCache Origin = "stale-cache"
	OriginFallback   Origin = "fallback"
)

// Result is a listing together with its provenance
type Result struct {
	Versions []KernelVersion `json:"versions"`
	CachedAt time.Time       `json:"cached_at"`
	Origin   Origin          `json:"origin"`
}

// normalizeEntries re-derives identifiers and parsed versions, drops
// entries with an empty identifier and keeps the first occurrence of
// each identifier. Source order is preserved.
func normalizeEntries(in []KernelVersion) []KernelVersion {
	seen := make(map[string]struct{}, len(in))
	out := make([]KernelVersion, 0, len(in))
	for _, kv := range in {
		entry := NewKernelVersion(kv.Version, kv.Channel, kv.Released, kv.EOL)
		if entry.Version == "" {
			continue
		}
		if _, dup := seen[entry.Version]; dup {
			continue
		}
		seen[entry.Version] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func cloneVersions(in []KernelVersion) []KernelVersion {
	out := make([]KernelVersion, len(in))
	for i, kv := range in {
		out[i] = kv.clone()
	}
	return out
}

// Find returns the entry whose identifier matches id after normalization
func Find(versions []KernelVersion, id string) (KernelVersion, bool) {
	want := kernel.Normalize(id)
	for _, kv := range versions {
		if kv.Version == want {
			return kv, true
		}
	}
	return KernelVersion{}, false
}

// Latest returns the newest parseable entry on the given channel
func Latest(versions []KernelVersion, channel Channel) (KernelVersion, bool) {
	var best KernelVersion
	found := false
	for _, kv := range versions {
		if kv.Channel != channel || kv.Semver == nil {
			continue
		}
		if !found || kv.Semver.Compare(*best.Semver) > 0 {
			best = kv
			found = true
		}
	}
	return best, found
}
