package kconfig

import (
	"fmt"
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
)

// Category is a named group of options removed together
type Category struct {
	Name    string   `json:"name"`
	Slug    string   `json:"slug"`
	Options []string `json:"options"`
}

var categories = []Category{
	{
		Name:    "Architecture Cleanup",
		Slug:    "architecture",
		Options: []string{"CONFIG_ARM", "CONFIG_MIPS", "CONFIG_POWERPC", "CONFIG_RISCV"},
	},
	{
		Name:    "Industrial Hardware Removal",
		Slug:    "industrial",
		Options: []string{"CONFIG_INFINIBAND", "CONFIG_FIBRE_CHANNEL", "CONFIG_SCSI_TAPE", "CONFIG_LEGACY_HARDWARE"},
	},
	{
		// CONFIG_VIRTUALIZATION stays: desktops run VMs and containers
		Name:    "Enterprise Features Removal",
		Slug:    "enterprise",
		Options: []string{"CONFIG_CLUSTERING", "CONFIG_MAINFRAME_SUPPORT"},
	},
	{
		Name:    "Embedded Systems Removal",
		Slug:    "embedded",
		Options: []string{"CONFIG_SPI", "CONFIG_I2C_SENSORS", "CONFIG_INDUSTRIAL_BUSES"},
	},
	{
		Name:    "Legacy Hardware Removal",
		Slug:    "legacy",
		Options: []string{"CONFIG_ISA", "CONFIG_EISA", "CONFIG_MCA", "CONFIG_PARALLEL_PORT", "CONFIG_FLOPPY", "CONFIG_IDE"},
	},
	{
		Name:    "Obscure Filesystems Removal",
		Slug:    "filesystems",
		Options: []string{"CONFIG_REISERFS_FS", "CONFIG_JFS_FS", "CONFIG_HFS_FS"},
	},
	{
		Name:    "Networking Protocols Cleanup",
		Slug:    "networking",
		Options: []string{"CONFIG_DECNET", "CONFIG_APPLETALK", "CONFIG_X25", "CONFIG_AMATEUR_RADIO"},
	},
	{
		Name:    "Security Modules Cleanup",
		Slug:    "security",
		Options: []string{"CONFIG_SECURITY_SELINUX", "CONFIG_SECURITY_APPARMOR", "CONFIG_SECURITY_TOMOYO"},
	},
	{
		Name:    "Sound Drivers Cleanup",
		Slug:    "sound",
		Options: []string{"CONFIG_SND_ISA", "CONFIG_SND_PCMCIA", "CONFIG_SND_FIREWIRE", "CONFIG_SND_SPI"},
	},
}

// Categories returns the bloat-removal table in order
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = c
		out[i].Options = append([]string(nil), c.Options...)
	}
	return out
}

// LookupCategory finds a category by display name or slug, ignoring case
func LookupCategory(name string) (Category, bool) {
	key := strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(c.Name, key) || strings.EqualFold(c.Slug, key) {
			return c, true
		}
	}
	return Category{}, false
}

// UnknownCategoryError lists every category name that was not recognized
type UnknownCategoryError struct {
	Names []string
}

func (e *UnknownCategoryError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "unknown bloat-removal categories: " + strings.Join(quoted, ", ")
}

// Unwrap lets errors.Is match ErrUnknownBloatCategory
func (e *UnknownCategoryError) Unwrap() error {
	return errors.ErrUnknownBloatCategory
}

// ApplyBloatRemoval disables the options of each named category. Names
// are checked first: if any is unknown nothing is applied and an
// *UnknownCategoryError is returned. Protected options are left alone.
func (b *Builder) ApplyBloatRemoval(names ...string) error {
	selected := make([]Category, 0, len(names))
	var unknown []string
	for _, n := range names {
		c, ok := LookupCategory(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		selected = append(selected, c)
	}
	if len(unknown) > 0 {
		return &UnknownCategoryError{Names: unknown}
	}

	for _, c := range selected {
		for _, name := range c.Options {
			if b.IsProtected(name) {
				log.Debug("Keeping protected option", "option", name, "category", c.Name)
				continue
			}
			b.Unset(name)
		}
	}
	return nil
}
