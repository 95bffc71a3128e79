package plan

import (
	"context"
	"strings"
	"testing"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
)

func TestRecipe_Build(t *testing.T) {
	det := &stubDetector{tc: clang}
	r := Recipe{
		Version: "6.17",
		Desktop: true,
		Bloat:   []string{"legacy", "Sound"},
		Options: map[string]string{
			"CONFIG_HZ":   "250",
			"DEBUG_INFO":  "n",
			"CONFIG_KVM":  "m",
			"CONFIG_ZRAM": "y",
		},
	}

	p, err := r.Build(context.Background(), WithDetector(det), WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if det.calls != 1 {
		t.Errorf("detector called %d times, want 1", det.calls)
	}
	if p.LTO() != toolchain.LTOThin {
		t.Errorf("LTO() = %q, want thin", p.LTO())
	}

	checks := map[string]kconfig.Value{
		"CONFIG_HZ":         kconfig.Lit("250"),
		"CONFIG_DEBUG_INFO": kconfig.Off(),
		"CONFIG_KVM":        kconfig.Lit("m"),
		"CONFIG_ZRAM":       kconfig.On(),
		"CONFIG_ISA":        kconfig.Off(),
		"CONFIG_SND_ISA":    kconfig.Off(),
		"CONFIG_NTFS3_FS":   kconfig.On(),
	}
	for name, want := range checks {
		got, ok := p.Config().Get(name)
		if !ok || got != want {
			t.Errorf("%s = %v (present %v), want %v", name, got, ok, want)
		}
	}
	if vs := p.Validate(); len(vs) != 0 {
		t.Errorf("Validate() = %v, want none", vs)
	}
}

func TestRecipe_ForcedToolchainSkipsDetection(t *testing.T) {
	det := &stubDetector{err: errors.ErrToolchainNotFound}

	p, err := Recipe{Version: "6.12", Toolchain: "gnu", Arch: "aarch64"}.Build(context.Background(), WithDetector(det))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if det.calls != 0 {
		t.Errorf("detector called %d times, want 0", det.calls)
	}
	if p.Toolchain().Kind != toolchain.KindGCC || p.LTO() != toolchain.LTONone {
		t.Errorf("toolchain = %v, lto = %q", p.Toolchain(), p.LTO())
	}
	if p.Arch() != kconfig.ArchARM64 {
		t.Errorf("Arch() = %q, want arm64", p.Arch())
	}
}

func TestRecipe_ThinLTOWithGCCIsAViolation(t *testing.T) {
	p, err := Recipe{Version: "6.17", Toolchain: "gcc", ThinLTO: true}.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := codes(p.Validate()); len(got) != 1 || got[0] != CodeLTORequiresClang {
		t.Errorf("Validate() codes = %v", got)
	}
}

func TestRecipe_MultiLineOptionIsRejected(t *testing.T) {
	r := Recipe{
		Version:   "6.17",
		Toolchain: "gcc",
		Options: map[string]string{
			"CONFIG_HZ":           "1000",
			"CONFIG_LOCALVERSION": "\"x\"\nCONFIG_MODULES=n",
		},
	}
	p, err := r.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := p.Config().Get("CONFIG_LOCALVERSION"); ok {
		t.Error("multi-line option reached the config")
	}
	if v, _ := p.Config().Get("CONFIG_MODULES"); v.Kind != kconfig.Enabled {
		t.Errorf("CONFIG_MODULES = %v, want the baseline value", v)
	}
	if strings.Count(p.Emit(), "CONFIG_MODULES") != 1 {
		t.Errorf("CONFIG_MODULES emitted more than once:\n%s", p.Emit())
	}
	if got := codes(p.Validate()); len(got) != 1 || got[0] != kconfig.CodeInvalidOption {
		t.Errorf("Validate() codes = %v, want [%s]", got, kconfig.CodeInvalidOption)
	}
}

func TestRecipe_Errors(t *testing.T) {
	det := &stubDetector{tc: clang}
	tests := []struct {
		name   string
		recipe Recipe
		want   error
	}{
		{"unsupported arch", Recipe{Version: "6.17", Arch: "riscv"}, errors.ErrUnsupportedArch},
		{"unknown toolchain", Recipe{Version: "6.17", Toolchain: "icc"}, errors.ErrUnknownToolchain},
		{"unknown lto", Recipe{Version: "6.17", LTO: "fat"}, errors.ErrInvalidLTOMode},
		{"unknown bloat", Recipe{Version: "6.17", Bloat: []string{"gaming"}}, errors.ErrUnknownBloatCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.recipe.Build(context.Background(), WithDetector(det))
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}
