package kconfig

import (
	"strings"
	"testing"

	"github.com/bitswalk/kforge/src/common/errors"
)

func TestParseConfig_RoundTrip(t *testing.T) {
	in := `#
# Automatically generated file; DO NOT EDIT.
# Linux/x86 6.17.0 Kernel Configuration
#
CONFIG_CC_VERSION_TEXT="clang version 19.1.7"
CONFIG_X86_64=y

# CONFIG_ARM is not set
CONFIG_HZ=1000
CONFIG_KVM=m
`
	b, err := ParseConfig(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseConfig() error: %v", err)
	}

	want := `CONFIG_CC_VERSION_TEXT="clang version 19.1.7"
CONFIG_X86_64=y
# CONFIG_ARM is not set
CONFIG_HZ=1000
CONFIG_KVM=m
`
	if got := b.Emit(); got != want {
		t.Errorf("Emit() after parse =\n%s\nwant\n%s", got, want)
	}

	again, err := ParseConfig(strings.NewReader(b.Emit()))
	if err != nil {
		t.Fatal(err)
	}
	if again.Emit() != b.Emit() {
		t.Error("emit/parse is not stable")
	}
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("CONFIG_A=y\nCONFIG_BROKEN\n"))
	if !errors.Is(err, errors.ErrConfigParse) {
		t.Fatalf("ParseConfig() error = %v, want ErrConfigParse", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name the line", err)
	}
}
