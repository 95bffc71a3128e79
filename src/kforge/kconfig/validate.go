package kconfig

import (
	"fmt"

	"github.com/bitswalk/kforge/src/kforge/kernel"
)

// Violation codes reported by Validate
const (
	CodeInvalidVersion = "invalid_version"
	CodeOptionRemoved  = "option_removed"
	CodeOptionTooNew   = "option_unavailable"
	CodeInvalidOption  = "invalid_option"
)

// Violation is one problem found in a configuration
type Violation struct {
	Code    string `json:"code"`
	Option  string `json:"option,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Message
}

// constraint bounds the series an option exists in. A zero bound is open.
type constraint struct {
	option     string
	introduced [2]int
	removed    [2]int
}

var constraints = []constraint{
	{option: "CONFIG_NTFS3_FS", introduced: [2]int{5, 15}},
	{option: "CONFIG_BCACHEFS_FS", introduced: [2]int{6, 7}},
	{option: "CONFIG_NTFS_FS", removed: [2]int{6, 9}},
	{option: "CONFIG_SCHED_CLASS_EXT", introduced: [2]int{6, 12}},
	{option: "CONFIG_REISERFS_FS", removed: [2]int{6, 13}},
}

func series(s [2]int) string {
	return fmt.Sprintf("%d.%d", s[0], s[1])
}

// Validate checks every option that is set against the kernel series it
// exists in. All problems are returned, in option order; an unparseable
// version is reported once and skips the series checks.
func Validate(version string, options []Option) []Violation {
	var out []Violation

	v, err := kernel.ParseSemver(version)
	if err != nil {
		return append(out, Violation{
			Code:    CodeInvalidVersion,
			Message: fmt.Sprintf("kernel version %q cannot be parsed", version),
		})
	}

	byName := make(map[string]constraint, len(constraints))
	for _, c := range constraints {
		byName[c.option] = c
	}

	for _, o := range options {
		c, ok := byName[o.Name]
		if !ok || !o.Value.IsSet() {
			continue
		}
		if c.introduced != [2]int{} && !v.AtLeast(c.introduced[0], c.introduced[1]) {
			out = append(out, Violation{
				Code:    CodeOptionTooNew,
				Option:  o.Name,
				Message: fmt.Sprintf("%s is not available before %s (selected %s)", o.Name, series(c.introduced), v.Series()),
			})
		}
		if c.removed != [2]int{} && v.AtLeast(c.removed[0], c.removed[1]) {
			out = append(out, Violation{
				Code:    CodeOptionRemoved,
				Option:  o.Name,
				Message: fmt.Sprintf("%s was removed in %s (selected %s)", o.Name, series(c.removed), v.Series()),
			})
		}
	}
	return out
}
