package kconfig

import (
	"strings"
	"testing"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/google/go-cmp/cmp"
)

func value(t *testing.T, b *Builder, name string) string {
	t.Helper()
	v, ok := b.Get(name)
	if !ok {
		return "<missing>"
	}
	return v.String()
}

func TestApplyBaseline_X86_64(t *testing.T) {
	b := NewBuilder()
	if err := b.ApplyBaseline(ArchX86_64); err != nil {
		t.Fatalf("ApplyBaseline() error: %v", err)
	}

	checks := map[string]string{
		"CONFIG_X86_64":  "y",
		"CONFIG_64BIT":   "y",
		"CONFIG_MODULES": "y",
		"CONFIG_ARM":     "n",
		"CONFIG_ARM64":   "n",
		"CONFIG_RISCV":   "n",
		"CONFIG_HEXAGON": "n",
		"CONFIG_FLOPPY":  "n",
		"CONFIG_IDE":     "n",
		"CONFIG_X86":     "<missing>",
		"CONFIG_EXT4_FS": "y",
		"CONFIG_NET":     "y",
	}
	for name, want := range checks {
		if got := value(t, b, name); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
	if !b.IsProtected("CONFIG_X86_64") || !b.IsProtected("CONFIG_X86") {
		t.Error("x86 target symbols should be protected")
	}
	if b.Arch() != ArchX86_64 {
		t.Errorf("Arch() = %q", b.Arch())
	}
	if names := b.Names(); names[0] != "CONFIG_X86_64" {
		t.Errorf("first option = %s, want CONFIG_X86_64", names[0])
	}
}

func TestApplyBaseline_ARM64(t *testing.T) {
	b := NewBuilder()
	if err := b.ApplyBaseline(ArchARM64); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{
		"CONFIG_ARM64":  "y",
		"CONFIG_X86_64": "n",
		"CONFIG_X86":    "n",
		"CONFIG_ARM":    "n",
	} {
		if got := value(t, b, name); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}

	b.ApplyDesktopOptimizations()
	if _, ok := b.Get("CONFIG_X86_X2APIC"); ok {
		t.Error("x86-only knobs should not be set on arm64")
	}
}

func TestApplyBaseline_Unsupported(t *testing.T) {
	b := NewBuilder()
	if err := b.ApplyBaseline("sparc"); !errors.Is(err, errors.ErrUnsupportedArch) {
		t.Errorf("ApplyBaseline(sparc) error = %v, want ErrUnsupportedArch", err)
	}
	if b.Len() != 0 {
		t.Error("failed baseline must not touch the builder")
	}
}

func TestParseArch(t *testing.T) {
	tests := []struct {
		in      string
		want    Arch
		wantErr bool
	}{
		{"", ArchX86_64, false},
		{"amd64", ArchX86_64, false},
		{"X86_64", ArchX86_64, false},
		{"aarch64", ArchARM64, false},
		{"arm64", ArchARM64, false},
		{"riscv64", "", true},
	}
	for _, tt := range tests {
		got, err := ParseArch(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseArch(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestApplyDesktopOptimizations(t *testing.T) {
	b := NewBuilder()
	_ = b.ApplyBaseline(ArchX86_64)
	b.ApplyDesktopOptimizations()

	for name, want := range map[string]string{
		"CONFIG_HZ_1000":           "y",
		"CONFIG_HZ":                "1000",
		"CONFIG_PREEMPT":           "y",
		"CONFIG_PREEMPT_VOLUNTARY": "n",
		"CONFIG_NO_HZ_FULL":        "y",
		"CONFIG_X86_X2APIC":        "y",
		"CONFIG_BTRFS_FS":          "y",
		"CONFIG_NTFS3_FS":          "y",
		"CONFIG_NTFS_FS":           "<missing>",
		"CONFIG_REISERFS_FS":       "n",
		"CONFIG_EMBEDDED":          "n",
	} {
		if got := value(t, b, name); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
	if strings.Count(b.Emit(), "CONFIG_EXT4_FS=") != 1 {
		t.Error("CONFIG_EXT4_FS emitted more than once")
	}
}

func TestApplyBloatRemoval(t *testing.T) {
	b := NewBuilder()
	_ = b.ApplyBaseline(ArchX86_64)
	b.Set("CONFIG_SPI", "y")

	if err := b.ApplyBloatRemoval("Embedded Systems Removal", "networking", "SECURITY"); err != nil {
		t.Fatalf("ApplyBloatRemoval() error: %v", err)
	}
	for _, name := range []string{"CONFIG_SPI", "CONFIG_I2C_SENSORS", "CONFIG_DECNET", "CONFIG_SECURITY_SELINUX"} {
		if got := value(t, b, name); got != "n" {
			t.Errorf("%s = %s, want n", name, got)
		}
	}
	if _, ok := b.Get("CONFIG_VIRTUALIZATION"); ok {
		t.Error("CONFIG_VIRTUALIZATION should never be touched")
	}
}

func TestApplyBloatRemoval_UnknownAppliesNothing(t *testing.T) {
	b := NewBuilder().Set("CONFIG_SPI", "y")
	before := b.Emit()

	err := b.ApplyBloatRemoval("embedded", "bogus", "Also Bogus")
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownCategoryError", err)
	}
	if diff := cmp.Diff([]string{"bogus", "Also Bogus"}, unknown.Names); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(err, errors.ErrUnknownBloatCategory) {
		t.Error("error should match ErrUnknownBloatCategory")
	}
	if b.Emit() != before {
		t.Error("builder changed despite unknown category")
	}
}

func TestApplyBloatRemoval_KeepsProtected(t *testing.T) {
	b := NewBuilder()
	_ = b.ApplyBaseline(ArchARM64)
	b.Set("CONFIG_ARM", "y").Protect("CONFIG_ARM")

	if err := b.ApplyBloatRemoval("architecture"); err != nil {
		t.Fatal(err)
	}
	if got := value(t, b, "CONFIG_ARM"); got != "y" {
		t.Errorf("protected CONFIG_ARM = %s, want y", got)
	}
	if got := value(t, b, "CONFIG_MIPS"); got != "n" {
		t.Errorf("CONFIG_MIPS = %s, want n", got)
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) != 9 {
		t.Fatalf("Categories() has %d entries, want 9", len(cats))
	}
	if cats[0].Name != "Architecture Cleanup" || cats[8].Slug != "sound" {
		t.Errorf("unexpected table order: %q ... %q", cats[0].Name, cats[8].Slug)
	}
	cats[0].Options[0] = "mutated"
	if Categories()[0].Options[0] == "mutated" {
		t.Error("Categories() must return copies")
	}
}

func TestDesktop(t *testing.T) {
	b, err := Desktop(ArchX86_64)
	if err != nil {
		t.Fatalf("Desktop() error: %v", err)
	}
	if got := value(t, b, "CONFIG_INFINIBAND"); got != "n" {
		t.Errorf("CONFIG_INFINIBAND = %s, want n", got)
	}
	if got := value(t, b, "CONFIG_X86_64"); got != "y" {
		t.Errorf("CONFIG_X86_64 = %s, want y", got)
	}
	if v := Validate("6.17.0", b.Options()); len(v) != 0 {
		t.Errorf("desktop profile has violations on 6.17: %v", v)
	}
}
