package plan

import (
	"context"
	"sort"

	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
)

// Recipe describes a plan by name rather than by builder calls. The CLI
// and the HTTP API both build plans from one.
type Recipe struct {
	Version string `json:"version" binding:"required"`

	// Arch defaults to x86_64
	Arch string `json:"arch,omitempty"`

	// Toolchain skips detection and forces "clang" or "gcc"
	Toolchain string `json:"toolchain,omitempty"`

	// LTO forces a mode; ThinLTO is shorthand for "thin"
	LTO     string `json:"lto,omitempty"`
	ThinLTO bool   `json:"thin_lto,omitempty"`

	Desktop bool     `json:"desktop,omitempty"`
	Bloat   []string `json:"bloat,omitempty"`

	// Options are applied last, in name order. "y" enables, "n" disables,
	// anything else is stored verbatim.
	Options map[string]string `json:"options,omitempty"`
}

// Build runs the recipe. opts are applied before the recipe's own
// settings, so a detector or clock can be supplied by the caller.
func (r Recipe) Build(ctx context.Context, opts ...Option) (*BuildPlan, error) {
	arch, err := kconfig.ParseArch(r.Arch)
	if err != nil {
		return nil, err
	}

	lto := toolchain.LTO("")
	if r.ThinLTO {
		lto = toolchain.LTOThin
	} else if r.LTO != "" {
		if lto, err = toolchain.ParseLTO(r.LTO); err != nil {
			return nil, err
		}
	}

	all := append([]Option{}, opts...)
	all = append(all, WithArch(arch))
	if r.Toolchain != "" {
		kind, err := toolchain.ParseKind(r.Toolchain)
		if err != nil {
			return nil, err
		}
		all = append(all, WithToolchain(toolchain.ForKind(kind)))
	}

	b, err := NewBuilder(ctx, r.Version, all...)
	if err != nil {
		return nil, err
	}

	if r.Desktop {
		b.ApplyDesktopOptimizations()
	}
	if len(r.Bloat) > 0 {
		if err := b.ApplyBloatRemoval(r.Bloat...); err != nil {
			return nil, err
		}
	}
	if len(r.Options) > 0 {
		names := make([]string, 0, len(r.Options))
		for name := range r.Options {
			names = append(names, name)
		}
		sort.Strings(names)
		b.Configure(func(c *kconfig.Builder) {
			for _, name := range names {
				c.SetValue(name, kconfig.ParseValue(r.Options[name]))
			}
		})
	}
	if lto != "" {
		b.ForceLTO(lto)
	}

	return b.Finalize(), nil
}
