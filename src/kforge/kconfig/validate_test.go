package kconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func codes(vs []Violation) []string {
	out := []string{}
	for _, v := range vs {
		out = append(out, v.Code+":"+v.Option)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		version string
		build   func(*Builder)
		want    []string
	}{
		{
			name:    "clean",
			version: "6.17.0",
			build:   func(b *Builder) { b.Set("CONFIG_NTFS3_FS", "y") },
			want:    []string{},
		},
		{
			name:    "removed option",
			version: "6.17",
			build:   func(b *Builder) { b.Set("CONFIG_NTFS_FS", "m") },
			want:    []string{"option_removed:CONFIG_NTFS_FS"},
		},
		{
			name:    "disabled removed option is fine",
			version: "6.17",
			build:   func(b *Builder) { b.Unset("CONFIG_REISERFS_FS") },
			want:    []string{},
		},
		{
			name:    "too new",
			version: "6.6.0",
			build:   func(b *Builder) { b.Set("CONFIG_SCHED_CLASS_EXT", "y") },
			want:    []string{"option_unavailable:CONFIG_SCHED_CLASS_EXT"},
		},
		{
			name:    "release candidate counts as its series",
			version: "6.12-rc1",
			build:   func(b *Builder) { b.Set("CONFIG_SCHED_CLASS_EXT", "y") },
			want:    []string{},
		},
		{
			name:    "all problems reported",
			version: "6.6.0",
			build: func(b *Builder) {
				b.Set("CONFIG_SCHED_CLASS_EXT", "y")
				b.Set("CONFIG_REISERFS_FS", "y")
				b.Set("CONFIG_BCACHEFS_FS", "y")
			},
			want: []string{"option_unavailable:CONFIG_SCHED_CLASS_EXT", "option_unavailable:CONFIG_BCACHEFS_FS"},
		},
		{
			name:    "both bounds",
			version: "6.13.0",
			build: func(b *Builder) {
				b.Set("CONFIG_REISERFS_FS", "y")
				b.Set("CONFIG_NTFS_FS", "y")
			},
			want: []string{"option_removed:CONFIG_REISERFS_FS", "option_removed:CONFIG_NTFS_FS"},
		},
		{
			name:    "unparseable version",
			version: "abc",
			build:   func(b *Builder) { b.Set("CONFIG_NTFS_FS", "y") },
			want:    []string{"invalid_version:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			got := b.Freeze().Validate(tt.version)
			if diff := cmp.Diff(tt.want, codes(got)); diff != "" {
				t.Errorf("Validate(%q) mismatch (-want +got):\n%s", tt.version, diff)
			}
		})
	}
}

func TestValidate_Repeatable(t *testing.T) {
	cfg := NewBuilder().Set("CONFIG_NTFS_FS", "y").Freeze()
	first := cfg.Validate("6.17.0")
	second := cfg.Validate("6.17.0")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Validate() not repeatable (-first +second):\n%s", diff)
	}
}
