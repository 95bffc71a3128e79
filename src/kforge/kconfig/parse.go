package kconfig

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
)

var (
	setLine   = regexp.MustCompile(`^(CONFIG_[A-Za-z0-9_]+)=(.*)$`)
	unsetLine = regexp.MustCompile(`^# (CONFIG_[A-Za-z0-9_]+) is not set$`)
)

// ParseConfig reads an existing .config into a new builder. Values are kept
// verbatim, quotes included, so that Emit reproduces the assignments.
// Blank lines and ordinary comments are skipped; a line that starts with
// CONFIG_ but is not an assignment is an error.
func ParseConfig(r io.Reader) (*Builder, error) {
	b := NewBuilder()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if m := setLine.FindStringSubmatch(line); m != nil {
			b.Set(m[1], m[2])
			continue
		}
		if m := unsetLine.FindStringSubmatch(line); m != nil {
			b.Unset(m[1])
			continue
		}
		if strings.HasPrefix(line, "CONFIG_") {
			return nil, errors.ErrConfigParse.WithMessagef("line %d: malformed option %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ErrConfigParse.WithCause(err)
	}
	return b, nil
}
