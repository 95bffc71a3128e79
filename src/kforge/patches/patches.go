// Package patches holds the compiled-in table of performance patches known
// to apply to each kernel release. Compatibility is asserted data: a version
// missing from the table has no patches, and nothing is inferred from
// neighbouring releases.
package patches

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitswalk/kforge/src/kforge/kernel"
)

// Source says where a patch comes from
type Source string

const (
	// SourceUpstream means the feature is already merged in the release
	SourceUpstream Source = "upstream"
	// SourceExternal means the patch must be fetched from URL and applied
	SourceExternal Source = "external"
)

// Patch describes one patch set
type Patch struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Source      Source   `json:"source"`
	URL         string   `json:"url,omitempty"`
	Versions    []string `json:"versions"`
}

// IsExternal reports whether the patch has to be applied on top of the tree
func (p Patch) IsExternal() bool {
	return p.Source == SourceExternal
}

func (p Patch) clone() Patch {
	out := p
	out.Versions = append([]string(nil), p.Versions...)
	return out
}

const (
	boreDescription      = "Burst-Oriented Response Enhancer scheduler for interactive workloads"
	bbrDescription       = "BBRv3 TCP congestion control"
	futexDescription     = "futex2 wait-on-multiple syscalls used by Wine and Proton"
	preemptRTDescription = "Fully preemptible real-time kernel"
)

// table maps a normalized version identifier to its patches
var table = map[string][]Patch{
	"6.6.0": {
		{
			Name:        "BORE",
			Description: boreDescription,
			Source:      SourceExternal,
			URL:         "https://github.com/firelzrd/bore-scheduler/tree/main/patches/stable/linux-6.6-bore",
		},
		{
			Name:        "BBRv3",
			Description: bbrDescription,
			Source:      SourceExternal,
			URL:         "https://github.com/google/bbr/tree/v3-6.6",
		},
		{
			Name:        "FUTEX2",
			Description: futexDescription,
			Source:      SourceUpstream,
		},
		{
			Name:        "PREEMPT_RT",
			Description: preemptRTDescription,
			Source:      SourceExternal,
			URL:         "https://kernel.org/pub/linux/kernel/projects/rt/6.6/",
		},
	},
	"6.17.0": {
		{
			Name:        "BORE",
			Description: boreDescription,
			Source:      SourceExternal,
			URL:         "https://github.com/firelzrd/bore-scheduler/tree/main/patches/stable/linux-6.17-bore",
		},
		{
			Name:        "BBRv3",
			Description: bbrDescription,
			Source:      SourceUpstream,
		},
		{
			Name:        "FUTEX2",
			Description: futexDescription,
			Source:      SourceUpstream,
		},
	},
}

func init() {
	if err := checkTable(table); err != nil {
		panic(err)
	}
	for version, list := range table {
		for i := range list {
			list[i].Versions = []string{version}
		}
	}
}

// checkTable rejects non-normalized keys and duplicate names within a version
func checkTable(t map[string][]Patch) error {
	for version, list := range t {
		if kernel.Normalize(version) != version {
			return fmt.Errorf("patches: table key %q is not normalized", version)
		}
		seen := make(map[string]struct{}, len(list))
		for _, p := range list {
			key := strings.ToLower(p.Name)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("patches: duplicate patch %q for %s", p.Name, version)
			}
			seen[key] = struct{}{}
			if p.Source == SourceExternal && p.URL == "" {
				return fmt.Errorf("patches: external patch %q for %s has no URL", p.Name, version)
			}
		}
	}
	return nil
}

func lookup(version string) []Patch {
	return table[kernel.Normalize(version)]
}

func filter(version string, keep func(Patch) bool) []Patch {
	out := []Patch{}
	for _, p := range lookup(version) {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	return out
}

// PatchesFor returns every patch known for version, in table order. Unknown
// versions yield an empty slice.
func PatchesFor(version string) []Patch {
	return filter(version, func(Patch) bool { return true })
}

// ExternalPatches returns the patches for version that are not upstream
func ExternalPatches(version string) []Patch {
	return filter(version, Patch.IsExternal)
}

// PatchesByFeature returns the patches whose name or description contains
// feature, ignoring case
func PatchesByFeature(version, feature string) []Patch {
	needle := strings.ToLower(strings.TrimSpace(feature))
	return filter(version, func(p Patch) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	})
}

// Get returns the named patch for version
func Get(version, name string) (Patch, bool) {
	for _, p := range lookup(version) {
		if strings.EqualFold(p.Name, name) {
			return p.clone(), true
		}
	}
	return Patch{}, false
}

// IsAvailable reports whether a patch called name exists for version
func IsAvailable(version, name string) bool {
	_, ok := Get(version, name)
	return ok
}

// Versions lists the identifiers present in the table, oldest first
func Versions() []string {
	out := make([]string, 0, len(table))
	for v := range table {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return kernel.Compare(out[i], out[j]) < 0
	})
	return out
}
