package toolchain

import (
	"errors"
	"testing"

	kerrors "github.com/bitswalk/kforge/src/common/errors"
)

func TestDepsFor_GCC(t *testing.T) {
	deps := DepsFor(KindGCC)
	expected := []string{"gcc", "ld", "ar"}
	if len(deps.Compiler) != len(expected) {
		t.Fatalf("expected %d GCC compiler deps, got %d", len(expected), len(deps.Compiler))
	}
	for i, bin := range expected {
		if deps.Compiler[i] != bin {
			t.Errorf("compiler[%d]: expected %q, got %q", i, bin, deps.Compiler[i])
		}
	}
	if len(deps.Common) != 4 {
		t.Errorf("expected 4 common deps, got %d", len(deps.Common))
	}
}

func TestDepsFor_Clang(t *testing.T) {
	deps := DepsFor(KindClang)
	if len(deps.Compiler) != 7 {
		t.Fatalf("expected 7 LLVM compiler deps, got %d", len(deps.Compiler))
	}
	if deps.Compiler[0] != "clang" || deps.Compiler[1] != "ld.lld" {
		t.Errorf("expected clang and ld.lld first, got %v", deps.Compiler[:2])
	}
	if all := deps.All(); len(all) != len(deps.Compiler)+len(deps.Common) {
		t.Errorf("All() length mismatch: got %d", len(all))
	}
}

func TestMakeVariables(t *testing.T) {
	if env := MakeVariables(KindGCC); len(env) != 0 {
		t.Errorf("expected no GCC variables, got %v", env)
	}
	env := MakeVariables(KindClang)
	if env["LLVM"] != "1" || env["CC"] != "clang" || env["LD"] != "ld.lld" {
		t.Errorf("unexpected LLVM variables: %v", env)
	}
}

func TestMissing(t *testing.T) {
	have := map[string]bool{"make": true, "gcc": true}
	lookPath := func(name string) (string, error) {
		if have[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	missing := Missing(Deps{Compiler: []string{"gcc", "ld"}, Common: []string{"make", "bc"}}, lookPath)
	if len(missing) != 2 || missing[0] != "ld" || missing[1] != "bc" {
		t.Errorf("Missing() = %v, want [ld bc]", missing)
	}
}

func TestDefaultLTO(t *testing.T) {
	tests := []struct {
		tc   Toolchain
		want LTO
	}{
		{Clang("19.1.7", "19.1.7"), LTOThin},
		{Toolchain{Kind: KindClang}, LTONone},
		{GCC("14.2.1", ""), LTONone},
	}
	for _, tt := range tests {
		if got := tt.tc.DefaultLTO(); got != tt.want {
			t.Errorf("%s DefaultLTO() = %q, want %q", tt.tc, got, tt.want)
		}
	}
}

func TestParseKindAndLTO(t *testing.T) {
	if k, err := ParseKind("LLVM"); err != nil || k != KindClang {
		t.Errorf("ParseKind(LLVM) = %q, %v", k, err)
	}
	if _, err := ParseKind("icc"); !kerrors.Is(err, kerrors.ErrUnknownToolchain) {
		t.Errorf("ParseKind(icc) error = %v", err)
	}
	if l, err := ParseLTO(""); err != nil || l != LTONone {
		t.Errorf("ParseLTO(\"\") = %q, %v", l, err)
	}
	if _, err := ParseLTO("fat"); !kerrors.Is(err, kerrors.ErrInvalidLTOMode) {
		t.Errorf("ParseLTO(fat) error = %v", err)
	}
}

func TestToolchainString(t *testing.T) {
	if got := Clang("19.1.7", "19.1.7").String(); got != "clang 19.1.7 + ld.lld 19.1.7" {
		t.Errorf("String() = %q", got)
	}
	if got := ForKind(KindGCC).String(); got != "gcc + ld" {
		t.Errorf("String() = %q", got)
	}
}
