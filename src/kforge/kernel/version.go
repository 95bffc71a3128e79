// Package kernel normalizes and orders Linux kernel version identifiers.
//
// Kernel releases are named MAJOR.MINOR[.PATCH][-rcN]. Identifiers are
// normalized to a dotted triple so that "6.17" and "6.17.0" name the same
// release; anything that does not look like a release number is carried
// through unchanged and simply has no parsed form.
package kernel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Semver is a parsed kernel version
type Semver struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Patch int    `json:"patch"`
	Pre   string `json:"pre,omitempty"`
}

// Normalize strips any leading non-numeric prefix ("v", "linux-") and pads
// the numeric part to three components, keeping a pre-release suffix:
//
//	"6.17"      -> "6.17.0"
//	"v6.6.58"   -> "6.6.58"
//	"6.18-rc1"  -> "6.18.0-rc1"
//
// Input with no recognizable release number is returned trimmed.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)

	start := strings.IndexFunc(trimmed, isDigit)
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start:]

	numeric, pre, hasPre := strings.Cut(rest, "-")
	// A bare number behind a prefix other than "v" is a tag such as
	// "next-20251024", not a release
	if start > 0 && !strings.Contains(numeric, ".") && !strings.EqualFold(trimmed[:start], "v") {
		return trimmed
	}

	parts := strings.Split(numeric, ".")
	if len(parts) > 3 {
		return trimmed
	}
	nums := make([]string, 0, 3)
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return trimmed
		}
		nums = append(nums, strconv.Itoa(n))
	}
	for len(nums) < 3 {
		nums = append(nums, "0")
	}

	out := strings.Join(nums, ".")
	if hasPre && pre != "" {
		out += "-" + pre
	}
	return out
}

// ParseSemver parses a raw identifier after normalization
func ParseSemver(raw string) (Semver, error) {
	norm := Normalize(raw)
	canonical := "v" + norm
	if !semver.IsValid(canonical) {
		return Semver{}, fmt.Errorf("invalid kernel version %q", raw)
	}

	numeric, pre, _ := strings.Cut(norm, "-")
	parts := strings.Split(numeric, ".")
	if len(parts) != 3 {
		return Semver{}, fmt.Errorf("invalid kernel version %q", raw)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Semver{}, fmt.Errorf("invalid kernel version %q: %w", raw, err)
		}
		nums[i] = n
	}
	return Semver{Major: nums[0], Minor: nums[1], Patch: nums[2], Pre: pre}, nil
}

// MustParse is like ParseSemver but panics on error. For compiled-in tables.
func MustParse(raw string) Semver {
	v, err := ParseSemver(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the normalized identifier
func (v Semver) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

// Series returns the MAJOR.MINOR release series, e.g. "6.17"
func (v Semver) Series() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v belongs to series major.minor or a later one.
// Pre-releases count as part of their series.
func (v Semver) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// Compare orders v against o; pre-releases sort before the release.
func (v Semver) Compare(o Semver) int {
	return semver.Compare("v"+v.String(), "v"+o.String())
}

// Compare orders two raw identifiers after normalization. Identifiers that
// fail to parse sort before every valid version and compare to each other
// lexically.
func Compare(a, b string) int {
	na, nb := "v"+Normalize(a), "v"+Normalize(b)
	va, vb := semver.IsValid(na), semver.IsValid(nb)
	if !va && !vb {
		return strings.Compare(Normalize(a), Normalize(b))
	}
	return semver.Compare(na, nb)
}

// Equal reports whether two raw identifiers name the same release
func Equal(a, b string) bool {
	return Compare(a, b) == 0
}

// SortDescending orders identifiers newest first
func SortDescending(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) > 0
	})
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
