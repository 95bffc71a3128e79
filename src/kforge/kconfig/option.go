// Package kconfig builds kernel .config option sets.
//
// A Builder accumulates options in first-seen order and renders them in the
// format scripts/kconfig reads back: NAME=y, NAME=value, or
// "# NAME is not set" for an option that was deliberately disabled.
package kconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bitswalk/kforge/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the kconfig package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Kind classifies an option value
type Kind int

const (
	// Enabled is "y"
	Enabled Kind = iota
	// Disabled is the explicit "is not set" marker
	Disabled
	// Literal is anything else: "m", numbers, quoted strings
	Literal
)

// String returns the kind name used in JSON output
func (k Kind) String() string {
	switch k {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "literal"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is an option value
type Value struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

// On is the enabled value
func On() Value { return Value{Kind: Enabled} }

// Off is the explicit disabled marker
func Off() Value { return Value{Kind: Disabled} }

// Lit wraps raw text as a literal value
func Lit(text string) Value { return Value{Kind: Literal, Text: text} }

// ParseValue classifies raw .config text. "y" enables, "n" disables,
// everything else is kept verbatim.
func ParseValue(raw string) Value {
	switch raw {
	case "y":
		return On()
	case "n":
		return Off()
	default:
		return Lit(raw)
	}
}

// IsSet reports whether the option ends up in the build, as built-in or otherwise
func (v Value) IsSet() bool {
	return v.Kind != Disabled
}

// String renders the right-hand side of a NAME=value line
func (v Value) String() string {
	switch v.Kind {
	case Enabled:
		return "y"
	case Disabled:
		return "n"
	default:
		return v.Text
	}
}

// Option is one configuration symbol with its value
type Option struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Line renders the option as a .config line without the newline
func (o Option) Line() string {
	if o.Value.Kind == Disabled {
		return fmt.Sprintf("# %s is not set", o.Name)
	}
	return o.Name + "=" + o.Value.String()
}

var namePattern = regexp.MustCompile(`^CONFIG_[A-Za-z0-9_]+$`)

// CanonicalName adds the CONFIG_ prefix when missing
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "CONFIG_") {
		return name
	}
	return "CONFIG_" + name
}

// ValidName reports whether name is a well-formed symbol after canonicalization
func ValidName(name string) bool {
	return namePattern.MatchString(CanonicalName(name))
}

// Quote renders s as a .config string literal
func Quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
