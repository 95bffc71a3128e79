package patches

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func names(ps []Patch) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestPatchesFor(t *testing.T) {
	tests := []struct {
		version string
		want    []string
	}{
		{"6.6.0", []string{"BORE", "BBRv3", "FUTEX2", "PREEMPT_RT"}},
		{"6.6", []string{"BORE", "BBRv3", "FUTEX2", "PREEMPT_RT"}},
		{"v6.17", []string{"BORE", "BBRv3", "FUTEX2"}},
		{"6.12.0", []string{}},
		{"6.6.58", []string{}},
		{"abc", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got := PatchesFor(tt.version)
			if got == nil {
				t.Fatal("PatchesFor() returned nil, want empty slice")
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("PatchesFor(%q) mismatch (-want +got):\n%s", tt.version, diff)
			}
		})
	}
}

func TestExternalPatches(t *testing.T) {
	if diff := cmp.Diff([]string{"BORE", "BBRv3", "PREEMPT_RT"}, names(ExternalPatches("6.6.0"))); diff != "" {
		t.Errorf("ExternalPatches(6.6.0) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"BORE"}, names(ExternalPatches("6.17.0"))); diff != "" {
		t.Errorf("ExternalPatches(6.17.0) mismatch (-want +got):\n%s", diff)
	}
	for _, p := range ExternalPatches("6.6.0") {
		if p.URL == "" {
			t.Errorf("external patch %s has no URL", p.Name)
		}
	}
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		version, name string
		want          bool
	}{
		{"6.6.0", "PREEMPT_RT", true},
		{"6.6.0", "preempt_rt", true},
		{"6.17.0", "PREEMPT_RT", false},
		{"6.17", "bbrv3", true},
		{"7.0.0", "BORE", false},
		{"6.6.0", "", false},
	}
	for _, tt := range tests {
		if got := IsAvailable(tt.version, tt.name); got != tt.want {
			t.Errorf("IsAvailable(%q, %q) = %v, want %v", tt.version, tt.name, got, tt.want)
		}
	}
}

func TestPatchesByFeature(t *testing.T) {
	if diff := cmp.Diff([]string{"BORE"}, names(PatchesByFeature("6.6.0", "scheduler"))); diff != "" {
		t.Errorf("scheduler mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"BBRv3"}, names(PatchesByFeature("6.17.0", "TCP"))); diff != "" {
		t.Errorf("TCP mismatch (-want +got):\n%s", diff)
	}
	if got := PatchesByFeature("6.12.0", "bore"); len(got) != 0 {
		t.Errorf("unknown version returned %v", names(got))
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	got := PatchesFor("6.6.0")
	got[0].Name = "mutated"
	got[0].Versions[0] = "0.0.0"

	again, ok := Get("6.6.0", "BORE")
	if !ok {
		t.Fatal("BORE disappeared after caller mutation")
	}
	if diff := cmp.Diff([]string{"6.6.0"}, again.Versions); diff != "" {
		t.Errorf("Versions mutated (-want +got):\n%s", diff)
	}
}

func TestVersions(t *testing.T) {
	if diff := cmp.Diff([]string{"6.6.0", "6.17.0"}, Versions()); diff != "" {
		t.Errorf("Versions() mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckTable(t *testing.T) {
	tests := []struct {
		name    string
		table   map[string][]Patch
		wantErr bool
	}{
		{"valid", map[string][]Patch{"6.6.0": {{Name: "A", Source: SourceUpstream}}}, false},
		{"duplicate name", map[string][]Patch{"6.6.0": {{Name: "A"}, {Name: "a"}}}, true},
		{"unnormalized key", map[string][]Patch{"6.6": {{Name: "A"}}}, true},
		{"external without url", map[string][]Patch{"6.6.0": {{Name: "A", Source: SourceExternal}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTable(tt.table)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkTable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
