// Package plan assembles kernel build plans. A Builder collects the
// version, configuration, toolchain and LTO choice; Finalize turns it into
// an immutable BuildPlan that can be validated, summarized and turned into
// make invocations.
package plan

import (
	"context"
	"sync"
	"time"

	"github.com/bitswalk/kforge/src/common/logs"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/kernel"
	"github.com/bitswalk/kforge/src/kforge/patches"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the plan package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Detector finds a toolchain; *toolchain.Detector implements it
type Detector interface {
	Detect(ctx context.Context) (toolchain.Toolchain, error)
}

type options struct {
	arch      kconfig.Arch
	detector  Detector
	toolchain *toolchain.Toolchain
	config    *kconfig.Config
	now       func() time.Time
}

// Option configures NewBuilder
type Option func(*options)

// WithArch selects the baseline architecture. x86_64 is the default.
func WithArch(arch kconfig.Arch) Option {
	return func(o *options) {
		o.arch = arch
	}
}

// WithDetector replaces the default toolchain detector
func WithDetector(d Detector) Option {
	return func(o *options) {
		if d != nil {
			o.detector = d
		}
	}
}

// WithToolchain skips detection and uses tc
func WithToolchain(tc toolchain.Toolchain) Option {
	return func(o *options) {
		o.toolchain = &tc
	}
}

// WithConfig seeds the builder with cfg instead of the architecture baseline
func WithConfig(cfg kconfig.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithClock replaces time.Now for CreatedAt stamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Builder is the mutable stage of plan construction. It is safe for
// concurrent use; Finalize always returns a complete, independent plan.
type Builder struct {
	mu        sync.Mutex
	version   string
	config    *kconfig.Builder
	toolchain toolchain.Toolchain
	lto       toolchain.LTO
	ltoForced bool
	now       func() time.Time
}

// NewBuilder starts a plan for version. Unless WithToolchain is given the
// toolchain is detected, and failure to find one is returned as an error
// matching ErrToolchainNotFound.
func NewBuilder(ctx context.Context, version string, opts ...Option) (*Builder, error) {
	o := options{arch: kconfig.ArchX86_64, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Builder{
		version: kernel.Normalize(version),
		now:     o.now,
	}

	if o.config != nil {
		b.config = o.config.Thaw()
	} else {
		b.config = kconfig.NewBuilder()
		if err := b.config.ApplyBaseline(o.arch); err != nil {
			return nil, err
		}
	}

	if o.toolchain != nil {
		b.toolchain = *o.toolchain
	} else {
		if o.detector == nil {
			o.detector = toolchain.NewDetector()
		}
		tc, err := o.detector.Detect(ctx)
		if err != nil {
			return nil, err
		}
		b.toolchain = tc
	}
	b.lto = b.toolchain.DefaultLTO()

	log.Debug("Started build plan", "version", b.version, "arch", b.config.Arch(), "toolchain", b.toolchain.String(), "lto", b.lto)
	return b, nil
}

// Rebuild returns a builder seeded from an existing plan, for further
// customisation. The plan itself is not affected.
func Rebuild(p *BuildPlan) *Builder {
	return &Builder{
		version:   p.version,
		config:    p.config.Thaw(),
		toolchain: p.toolchain,
		lto:       p.lto,
		ltoForced: p.lto != p.toolchain.DefaultLTO(),
		now:       time.Now,
	}
}

// ForceThinLTO requests ThinLTO regardless of the toolchain default
func (b *Builder) ForceThinLTO() *Builder {
	return b.ForceLTO(toolchain.LTOThin)
}

// ForceLTO requests mode regardless of the toolchain default
func (b *Builder) ForceLTO(mode toolchain.LTO) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lto = mode
	b.ltoForced = true
	return b
}

// ForceToolchain replaces the toolchain. An LTO mode that was not forced
// follows the new toolchain's default.
func (b *Builder) ForceToolchain(tc toolchain.Toolchain) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toolchain = tc
	if !b.ltoForced {
		b.lto = tc.DefaultLTO()
	}
	return b
}

// Configure runs fn against the plan's configuration
func (b *Builder) Configure(fn func(*kconfig.Builder)) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.config)
	return b
}

// ApplyDesktopOptimizations applies the desktop preset
func (b *Builder) ApplyDesktopOptimizations() *Builder {
	return b.Configure(func(c *kconfig.Builder) {
		c.ApplyDesktopOptimizations()
	})
}

// ApplyBloatRemoval applies the named categories, or nothing if any is unknown
func (b *Builder) ApplyBloatRemoval(categories ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config.ApplyBloatRemoval(categories...)
}

// Version returns the normalized target version
func (b *Builder) Version() string {
	return b.version
}

// LTO returns the currently selected LTO mode
func (b *Builder) LTO() toolchain.LTO {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lto
}

// Toolchain returns the currently selected toolchain
func (b *Builder) Toolchain() toolchain.Toolchain {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.toolchain
}

// Finalize produces a plan from the builder's current state. The builder
// can keep being modified and finalized again; earlier plans are unaffected.
func (b *Builder) Finalize() *BuildPlan {
	b.mu.Lock()
	defer b.mu.Unlock()

	seeded := b.config.Len()

	cfg := b.config.Freeze().Thaw()
	applyLTO(cfg, b.lto)
	cfg.Set("CONFIG_CC_OPTIMIZE_FOR_PERFORMANCE", "y")
	// the other member of the optimization choice
	if _, ok := cfg.Get("CONFIG_CC_OPTIMIZE_FOR_SIZE"); ok {
		cfg.Unset("CONFIG_CC_OPTIMIZE_FOR_SIZE")
	}

	p := &BuildPlan{
		version:     b.version,
		config:      cfg.Freeze(),
		seededCount: seeded,
		patches:     patches.PatchesFor(b.version),
		toolchain:   b.toolchain,
		lto:         b.lto,
		createdAt:   b.now().UTC(),
	}
	p.fingerprint = fingerprint(p)

	log.Debug("Finalized build plan", "version", p.version, "fingerprint", p.fingerprint[:12], "options", p.config.Len())
	return p
}

// ltoChoice are the members of the kernel's LTO choice; exactly one is set
var ltoChoice = map[toolchain.LTO]string{
	toolchain.LTONone: "CONFIG_LTO_NONE",
	toolchain.LTOThin: "CONFIG_LTO_CLANG_THIN",
	toolchain.LTOFull: "CONFIG_LTO_CLANG_FULL",
}

func applyLTO(cfg *kconfig.Builder, mode toolchain.LTO) {
	for _, m := range []toolchain.LTO{toolchain.LTOThin, toolchain.LTOFull, toolchain.LTONone} {
		if m == mode {
			cfg.Set(ltoChoice[m], "y")
		} else {
			cfg.Unset(ltoChoice[m])
		}
	}
}
