package kconfig

import (
	"fmt"
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
)

// Builder accumulates options. Each name appears at most once; setting an
// existing name replaces its value in place, keeping its original position.
// A Builder is not safe for concurrent use.
type Builder struct {
	options   []Option
	index     map[string]int
	protected map[string]struct{}
	arch      Arch
	invalid   []string
}

// NewBuilder returns an empty builder
func NewBuilder() *Builder {
	return &Builder{
		index:     make(map[string]int),
		protected: make(map[string]struct{}),
	}
}

// Set assigns a raw .config value ("y", "n", "m", "1000", "\"str\"")
func (b *Builder) Set(name, value string) *Builder {
	return b.SetValue(name, ParseValue(value))
}

// SetString assigns a quoted string literal
func (b *Builder) SetString(name, s string) *Builder {
	return b.SetValue(name, Lit(Quote(s)))
}

// Unset records that name is deliberately disabled
func (b *Builder) Unset(name string) *Builder {
	return b.SetValue(name, Off())
}

// SetValue assigns v to name. Malformed names and values spanning more
// than one line are not stored; they are reported by Err.
func (b *Builder) SetValue(name string, v Value) *Builder {
	canonical := CanonicalName(name)
	if !namePattern.MatchString(canonical) {
		b.invalid = append(b.invalid, name)
		return b
	}
	if strings.ContainsAny(v.Text, "\r\n") {
		b.invalid = append(b.invalid, canonical+"="+v.Text)
		return b
	}
	if i, ok := b.index[canonical]; ok {
		b.options[i].Value = v
		return b
	}
	b.index[canonical] = len(b.options)
	b.options = append(b.options, Option{Name: canonical, Value: v})
	return b
}

// Get returns the current value of name
func (b *Builder) Get(name string) (Value, bool) {
	i, ok := b.index[CanonicalName(name)]
	if !ok {
		return Value{}, false
	}
	return b.options[i].Value, true
}

// Len returns the number of distinct options
func (b *Builder) Len() int {
	return len(b.options)
}

// Names returns option names in first-seen order
func (b *Builder) Names() []string {
	return names(b.options)
}

// Options returns a copy of the options in first-seen order
func (b *Builder) Options() []Option {
	return append([]Option(nil), b.options...)
}

// Protect marks names that bloat removal must never disable
func (b *Builder) Protect(names ...string) *Builder {
	for _, n := range names {
		b.protected[CanonicalName(n)] = struct{}{}
	}
	return b
}

// IsProtected reports whether name is protected
func (b *Builder) IsProtected(name string) bool {
	_, ok := b.protected[CanonicalName(name)]
	return ok
}

// Arch returns the architecture chosen by ApplyBaseline, if any
func (b *Builder) Arch() Arch {
	return b.arch
}

// Merge applies every option of c in c's order, as if each were Set here
func (b *Builder) Merge(c Config) *Builder {
	for _, o := range c.options {
		b.SetValue(o.Name, o.Value)
	}
	for n := range c.protected {
		b.protected[n] = struct{}{}
	}
	if b.arch == "" {
		b.arch = c.arch
	}
	b.invalid = append(b.invalid, c.invalid...)
	return b
}

// Emit renders the .config text
func (b *Builder) Emit() string {
	return emit(b.options)
}

// Err reports the malformed options passed to the builder, if any
func (b *Builder) Err() error {
	return invalidNamesError(b.invalid)
}

// Freeze returns an immutable snapshot. The builder stays usable.
func (b *Builder) Freeze() Config {
	c := Config{
		options:   append([]Option(nil), b.options...),
		index:     make(map[string]int, len(b.index)),
		protected: make(map[string]struct{}, len(b.protected)),
		arch:      b.arch,
		invalid:   append([]string(nil), b.invalid...),
	}
	for k, v := range b.index {
		c.index[k] = v
	}
	for k := range b.protected {
		c.protected[k] = struct{}{}
	}
	return c
}

// Config is a frozen option set
type Config struct {
	options   []Option
	index     map[string]int
	protected map[string]struct{}
	arch      Arch
	invalid   []string
}

// Get returns the value of name
func (c Config) Get(name string) (Value, bool) {
	i, ok := c.index[CanonicalName(name)]
	if !ok {
		return Value{}, false
	}
	return c.options[i].Value, true
}

// Len returns the number of options
func (c Config) Len() int {
	return len(c.options)
}

// Names returns option names in order
func (c Config) Names() []string {
	return names(c.options)
}

// Options returns a copy of the options in order
func (c Config) Options() []Option {
	return append([]Option(nil), c.options...)
}

// Arch returns the baseline architecture, or "" when no baseline was applied
func (c Config) Arch() Arch {
	return c.arch
}

// Emit renders the .config text
func (c Config) Emit() string {
	return emit(c.options)
}

// Err reports options that were rejected while building
func (c Config) Err() error {
	return invalidNamesError(c.invalid)
}

// Validate checks the options against version; see the package-level Validate
func (c Config) Validate(version string) []Violation {
	return Validate(version, c.options)
}

// Thaw returns a new Builder seeded with this config
func (c Config) Thaw() *Builder {
	return NewBuilder().Merge(c)
}

func names(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Name
	}
	return out
}

func emit(opts []Option) string {
	var sb strings.Builder
	for _, o := range opts {
		sb.WriteString(o.Line())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func invalidNamesError(invalid []string) error {
	if len(invalid) == 0 {
		return nil
	}
	quoted := make([]string, len(invalid))
	for i, n := range invalid {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return errors.ErrInvalidFieldValue.WithMessage("invalid options: " + strings.Join(quoted, ", "))
}
