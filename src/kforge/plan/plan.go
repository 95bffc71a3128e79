package plan

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/kernel"
	"github.com/bitswalk/kforge/src/kforge/patches"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
	"golang.org/x/crypto/blake2b"
)

// Violation is a problem that makes a plan unusable
type Violation = kconfig.Violation

// Violation codes added by plan validation
const (
	CodeLTORequiresClang = "lto_requires_clang"
	CodeLTOUnsupported   = "lto_unsupported"
	CodeInvalidLTO       = "invalid_lto"
	CodeEmptyConfig      = "empty_config"
	CodePreemptRT        = "preempt_rt_unavailable"
)

// BuildPlan is an immutable, finalized plan
type BuildPlan struct {
	version     string
	config      kconfig.Config
	seededCount int
	patches     []patches.Patch
	toolchain   toolchain.Toolchain
	lto         toolchain.LTO
	createdAt   time.Time
	fingerprint string
}

// Version returns the normalized kernel version
func (p *BuildPlan) Version() string { return p.version }

// Arch returns the baseline architecture, empty for a plan seeded from a .config
func (p *BuildPlan) Arch() kconfig.Arch { return p.config.Arch() }

// Config returns the frozen configuration
func (p *BuildPlan) Config() kconfig.Config { return p.config }

// Toolchain returns the selected toolchain
func (p *BuildPlan) Toolchain() toolchain.Toolchain { return p.toolchain }

// LTO returns the selected LTO mode
func (p *BuildPlan) LTO() toolchain.LTO { return p.lto }

// CreatedAt returns when the plan was finalized
func (p *BuildPlan) CreatedAt() time.Time { return p.createdAt }

// Fingerprint is a hex blake2b-256 digest of everything that affects the
// build; CreatedAt is not part of it
func (p *BuildPlan) Fingerprint() string { return p.fingerprint }

// Patches returns every patch known for the plan's version
func (p *BuildPlan) Patches() []patches.Patch {
	out := make([]patches.Patch, len(p.patches))
	copy(out, p.patches)
	for i := range out {
		out[i].Versions = append([]string(nil), out[i].Versions...)
	}
	return out
}

// ExternalPatches returns the patches that must be applied on top of the tree
func (p *BuildPlan) ExternalPatches() []patches.Patch {
	return patches.ExternalPatches(p.version)
}

// Emit renders the plan's .config
func (p *BuildPlan) Emit() string {
	return p.config.Emit()
}

func (p *BuildPlan) makeBase() []string {
	args := []string{"make"}
	if p.toolchain.Kind == toolchain.KindClang {
		args = append(args, "LLVM=1")
	}
	return args
}

// MakeCommand returns the build invocation, e.g. make LLVM=1 -j16
func (p *BuildPlan) MakeCommand(parallelism int) ([]string, error) {
	if parallelism < 1 {
		return nil, errors.ErrInvalidParallelism.WithMessagef("parallelism must be at least 1, got %d", parallelism)
	}
	return append(p.makeBase(), fmt.Sprintf("-j%d", parallelism)), nil
}

// PrepareCommand returns the invocation that resolves the emitted config
// against the tree's Kconfig
func (p *BuildPlan) PrepareCommand() []string {
	return append(p.makeBase(), "olddefconfig")
}

// Validate reports every problem with the plan. It has no side effects.
func (p *BuildPlan) Validate() []Violation {
	out := []Violation{}

	switch {
	case ltoChoice[p.lto] == "":
		out = append(out, Violation{
			Code:    CodeInvalidLTO,
			Message: fmt.Sprintf("unknown LTO mode %q", p.lto),
		})
	case p.lto != toolchain.LTONone && p.toolchain.Kind == toolchain.KindGCC:
		out = append(out, Violation{
			Code:    CodeLTORequiresClang,
			Message: fmt.Sprintf("%s LTO requires clang; the selected toolchain is %s", p.lto, p.toolchain.Kind),
		})
	case p.lto != toolchain.LTONone && !p.toolchain.ThinLTO:
		out = append(out, Violation{
			Code:    CodeLTOUnsupported,
			Message: fmt.Sprintf("%s LTO requested but %s cannot link with LTO", p.lto, p.toolchain),
		})
	}

	if p.seededCount == 0 {
		out = append(out, Violation{
			Code:    CodeEmptyConfig,
			Message: "configuration has no options",
		})
	}

	if err := p.config.Err(); err != nil {
		out = append(out, Violation{
			Code:    kconfig.CodeInvalidOption,
			Message: err.Error(),
		})
	}

	out = append(out, p.config.Validate(p.version)...)

	if v, ok := p.config.Get("CONFIG_PREEMPT_RT"); ok && v.IsSet() {
		if sv, err := kernel.ParseSemver(p.version); err == nil && !sv.AtLeast(6, 12) && !p.hasPatch("PREEMPT_RT") {
			out = append(out, Violation{
				Code:    CodePreemptRT,
				Option:  "CONFIG_PREEMPT_RT",
				Message: fmt.Sprintf("CONFIG_PREEMPT_RT needs the PREEMPT_RT patch before 6.12, none is known for %s", p.version),
			})
		}
	}

	return out
}

func (p *BuildPlan) hasPatch(name string) bool {
	for _, pt := range p.patches {
		if strings.EqualFold(pt.Name, name) {
			return true
		}
	}
	return false
}

// Err returns nil for a usable plan, otherwise an error matching
// ErrPlanInvalid that lists every violation
func (p *BuildPlan) Err() error {
	violations := p.Validate()
	if len(violations) == 0 {
		return nil
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return errors.ErrPlanInvalid.WithMessage(strings.Join(msgs, "; "))
}

// Summary renders a short human-readable description
func (p *BuildPlan) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Build Plan for %s", p.version)
	if arch := p.Arch(); arch != "" {
		fmt.Fprintf(&sb, " (%s)", arch)
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "- Patches: %d total (%d external)\n", len(p.patches), len(p.ExternalPatches()))
	fmt.Fprintf(&sb, "- Config options: %d\n", p.config.Len())
	fmt.Fprintf(&sb, "- Compiler: %s\n", p.toolchain)
	fmt.Fprintf(&sb, "- LTO: %s\n", p.lto)
	fmt.Fprintf(&sb, "- Fingerprint: %s\n", p.fingerprint)
	return sb.String()
}

func fingerprint(p *BuildPlan) string {
	h, _ := blake2b.New256(nil)
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	write("kforge-plan/1")
	write(p.version)
	write(string(p.config.Arch()))
	write(string(p.toolchain.Kind))
	write(p.toolchain.Version)
	write(p.toolchain.Linker.Name)
	write(p.toolchain.Linker.Version)
	write(string(p.lto))
	for _, pt := range p.patches {
		write(pt.Name)
	}
	write(p.config.Emit())

	return hex.EncodeToString(h.Sum(nil))
}
