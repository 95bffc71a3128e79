package kconfig

import (
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
)

// Arch is a baseline target architecture
type Arch string

const (
	ArchX86_64 Arch = "x86_64"
	ArchARM64  Arch = "arm64"
)

// Arches lists the supported baseline architectures
func Arches() []Arch {
	return []Arch{ArchX86_64, ArchARM64}
}

// ParseArch accepts the kernel, GNU and Go spellings of an architecture
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "x86_64", "x86-64", "amd64":
		return ArchX86_64, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	default:
		return "", errors.ErrUnsupportedArch.WithMessagef("unsupported architecture %q", s)
	}
}

// archFamilies are the architecture symbols a baseline disables unless
// they belong to the target
var archFamilies = []string{
	"CONFIG_X86",
	"CONFIG_X86_64",
	"CONFIG_ARM",
	"CONFIG_ARM64",
	"CONFIG_MIPS",
	"CONFIG_POWERPC",
	"CONFIG_PPC",
	"CONFIG_PPC64",
	"CONFIG_RISCV",
	"CONFIG_S390",
	"CONFIG_IA64",
	"CONFIG_ALPHA",
	"CONFIG_M68K",
	"CONFIG_MICROBLAZE",
	"CONFIG_NDS32",
	"CONFIG_ARC",
	"CONFIG_SH",
	"CONFIG_SPARC",
	"CONFIG_SPARC64",
	"CONFIG_HEXAGON",
}

var legacyDevices = []string{
	"CONFIG_ISA",
	"CONFIG_EISA",
	"CONFIG_MCA",
	"CONFIG_PARALLEL_PORT",
	"CONFIG_FLOPPY",
	"CONFIG_IDE",
}

var archTargets = map[Arch][]string{
	// CONFIG_X86 is left to olddefconfig, as the x86_64 baseline always did
	ArchX86_64: {"CONFIG_X86_64"},
	ArchARM64:  {"CONFIG_ARM64"},
}

// protectedFamilies are family symbols that must survive for the target
// even though the baseline does not set them
var protectedFamilies = map[Arch][]string{
	ArchX86_64: {"CONFIG_X86"},
}

// ApplyBaseline enables arch and module support with conservative
// preemption, filesystem and networking defaults, then disables every
// other architecture family and the legacy bus list. The target symbols
// become protected.
func (b *Builder) ApplyBaseline(arch Arch) error {
	targets, ok := archTargets[arch]
	if !ok {
		return errors.ErrUnsupportedArch.WithMessagef("unsupported architecture %q", arch)
	}
	b.arch = arch

	for _, name := range targets {
		b.Set(name, "y")
	}
	b.Set("CONFIG_64BIT", "y")
	b.Protect(targets...)
	b.Protect(protectedFamilies[arch]...)
	b.Protect("CONFIG_64BIT")

	for _, name := range archFamilies {
		if b.IsProtected(name) {
			continue
		}
		b.Unset(name)
	}
	for _, name := range legacyDevices {
		b.Unset(name)
	}

	b.Set("CONFIG_MODULES", "y")
	b.Set("CONFIG_MODULE_UNLOAD", "y")
	b.Set("CONFIG_PREEMPT_VOLUNTARY", "y")
	b.Set("CONFIG_EXT4_FS", "y")
	b.Set("CONFIG_TMPFS", "y")
	b.Set("CONFIG_PROC_FS", "y")
	b.Set("CONFIG_SYSFS", "y")
	b.Set("CONFIG_DEVTMPFS", "y")
	b.Set("CONFIG_DEVTMPFS_MOUNT", "y")
	b.Set("CONFIG_NET", "y")
	b.Set("CONFIG_INET", "y")
	b.Set("CONFIG_IPV6", "y")
	b.Set("CONFIG_BLOCK", "y")

	log.Debug("Applied baseline", "arch", arch, "options", b.Len())
	return nil
}

// ApplyDesktopOptimizations tunes for interactive use: a 1000 Hz tick,
// full preemption, tickless operation and the modern filesystems
func (b *Builder) ApplyDesktopOptimizations() *Builder {
	b.Set("CONFIG_CC_OPTIMIZE_FOR_PERFORMANCE", "y")

	b.Set("CONFIG_HIGH_RES_TIMERS", "y")
	b.Set("CONFIG_NO_HZ_FULL", "y")
	b.Set("CONFIG_HZ_1000", "y")
	b.Set("CONFIG_HZ", "1000")

	// Preemption models are a choice; only one may be set
	b.Unset("CONFIG_PREEMPT_NONE")
	b.Unset("CONFIG_PREEMPT_VOLUNTARY")
	b.Set("CONFIG_PREEMPT", "y")
	b.Set("CONFIG_PREEMPT_COUNT", "y")

	if b.arch == ArchX86_64 {
		b.Set("CONFIG_X86_X2APIC", "y")
		b.Set("CONFIG_X86_TSC", "y")
	}

	b.Set("CONFIG_FUTEX", "y")
	b.Set("CONFIG_FUTEX2", "y")
	b.Unset("CONFIG_EMBEDDED")

	for _, fs := range []string{"CONFIG_EXT4_FS", "CONFIG_BTRFS_FS", "CONFIG_XFS_FS", "CONFIG_F2FS_FS", "CONFIG_VFAT_FS", "CONFIG_NTFS3_FS"} {
		b.Set(fs, "y")
	}
	for _, fs := range []string{"CONFIG_REISERFS_FS", "CONFIG_JFS_FS", "CONFIG_HFS_FS", "CONFIG_HFSPLUS_FS"} {
		b.Unset(fs)
	}
	return b
}

// DesktopCategories are the bloat categories of the stock desktop profile
var DesktopCategories = []string{
	"architecture",
	"industrial",
	"enterprise",
	"embedded",
	"legacy",
	"networking",
}

// Desktop returns the stock desktop profile for arch: baseline, desktop
// optimizations and DesktopCategories
func Desktop(arch Arch) (*Builder, error) {
	b := NewBuilder()
	if err := b.ApplyBaseline(arch); err != nil {
		return nil, err
	}
	b.ApplyDesktopOptimizations()
	if err := b.ApplyBloatRemoval(DesktopCategories...); err != nil {
		return nil, err
	}
	return b, nil
}
