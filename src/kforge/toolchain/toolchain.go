// Package toolchain detects the compiler toolchain available for a kernel
// build and describes what each toolchain needs from make.
package toolchain

import (
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the toolchain package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Kind is a compiler family
type Kind string

const (
	KindClang Kind = "clang"
	KindGCC   Kind = "gcc"
)

// ParseKind accepts "clang"/"llvm" and "gcc"/"gnu"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clang", "llvm":
		return KindClang, nil
	case "gcc", "gnu":
		return KindGCC, nil
	default:
		return "", errors.ErrUnknownToolchain.WithMessagef("unknown toolchain %q", s)
	}
}

// LTO is a link-time optimization mode
type LTO string

const (
	LTONone LTO = "none"
	LTOThin LTO = "thin"
	LTOFull LTO = "full"
)

// ParseLTO parses an LTO mode; the empty string is LTONone
func ParseLTO(s string) (LTO, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return LTONone, nil
	case "thin":
		return LTOThin, nil
	case "full":
		return LTOFull, nil
	default:
		return "", errors.ErrInvalidLTOMode.WithMessagef("unknown LTO mode %q", s)
	}
}

// Linker identifies the linker paired with a compiler
type Linker struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Toolchain is a detected or forced compiler toolchain
type Toolchain struct {
	Kind    Kind   `json:"kind"`
	Version string `json:"version,omitempty"`
	Linker  Linker `json:"linker"`

	// ThinLTO is true when the compiler and linker together can do LTO
	ThinLTO bool `json:"thin_lto"`
}

// Clang returns an LLVM toolchain linked with ld.lld
func Clang(version, lldVersion string) Toolchain {
	return Toolchain{
		Kind:    KindClang,
		Version: version,
		Linker:  Linker{Name: "ld.lld", Version: lldVersion},
		ThinLTO: true,
	}
}

// GCC returns a GNU toolchain linked with ld.bfd
func GCC(version, ldVersion string) Toolchain {
	return Toolchain{
		Kind:    KindGCC,
		Version: version,
		Linker:  Linker{Name: "ld", Version: ldVersion},
	}
}

// ForKind returns an undetected toolchain of kind, for explicit overrides
func ForKind(kind Kind) Toolchain {
	if kind == KindClang {
		return Clang("", "")
	}
	return GCC("", "")
}

// DefaultLTO is ThinLTO for an LTO-capable clang and none otherwise.
// GCC LTO is never used for kernels.
func (t Toolchain) DefaultLTO() LTO {
	if t.Kind == KindClang && t.ThinLTO {
		return LTOThin
	}
	return LTONone
}

// String renders e.g. "clang 19.1.7 + ld.lld 19.1.7"
func (t Toolchain) String() string {
	s := string(t.Kind)
	if t.Version != "" {
		s += " " + t.Version
	}
	if t.Linker.Name != "" {
		s += " + " + t.Linker.Name
		if t.Linker.Version != "" {
			s += " " + t.Linker.Version
		}
	}
	return s
}

// Deps lists the binaries a kernel build with a given toolchain needs
type Deps struct {
	Compiler []string `json:"compiler"`
	Common   []string `json:"common"`
}

// All returns the compiler and common binaries together
func (d Deps) All() []string {
	out := make([]string, 0, len(d.Compiler)+len(d.Common))
	out = append(out, d.Compiler...)
	return append(out, d.Common...)
}

var commonBuildDeps = []string{"make", "bc", "flex", "bison"}

// DepsFor returns the binaries required for kind
func DepsFor(kind Kind) Deps {
	common := append([]string(nil), commonBuildDeps...)
	if kind == KindClang {
		return Deps{
			Compiler: []string{"clang", "ld.lld", "llvm-ar", "llvm-nm", "llvm-strip", "llvm-objcopy", "llvm-objdump"},
			Common:   common,
		}
	}
	return Deps{
		Compiler: []string{"gcc", "ld", "ar"},
		Common:   common,
	}
}

// MakeVariables returns the variables make needs to use kind. GCC is the
// kernel default and needs none.
func MakeVariables(kind Kind) map[string]string {
	if kind != KindClang {
		return map[string]string{}
	}
	return map[string]string{
		"LLVM":    "1",
		"CC":      "clang",
		"LD":      "ld.lld",
		"AR":      "llvm-ar",
		"NM":      "llvm-nm",
		"STRIP":   "llvm-strip",
		"OBJCOPY": "llvm-objcopy",
		"OBJDUMP": "llvm-objdump",
		"HOSTCC":  "clang",
		"HOSTCXX": "clang++",
		"HOSTAR":  "llvm-ar",
		"HOSTLD":  "ld.lld",
	}
}

// Missing returns the binaries of deps that lookPath cannot find
func Missing(deps Deps, lookPath func(string) (string, error)) []string {
	var missing []string
	for _, bin := range deps.All() {
		if _, err := lookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}
