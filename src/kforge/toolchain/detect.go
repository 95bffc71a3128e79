package toolchain

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bitswalk/kforge/src/common/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds each version probe
const DefaultProbeTimeout = 5 * time.Second

// ProbeWaitDelay is how long a probe's output pipes may stay open after
// the probe exits or times out, e.g. held by a wrapper's background child
const ProbeWaitDelay = time.Second

// Runner runs a command and returns its standard output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs real binaries found in Path, or in $PATH when Path is empty
type ExecRunner struct {
	Path string
}

// LookPath resolves name against the runner's search path
func (r ExecRunner) LookPath(name string) (string, error) {
	if r.Path == "" || strings.ContainsRune(name, filepath.Separator) {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(r.Path) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() || info.Mode().Perm()&0111 == 0 {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Run implements Runner
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	bin, err := r.LookPath(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = ProbeWaitDelay
	out, err := cmd.Output()
	if stderrors.Is(err, exec.ErrWaitDelay) {
		// the probe itself exited successfully
		return out, nil
	}
	return out, err
}

// Detector finds the preferred available toolchain
type Detector struct {
	runner  Runner
	path    string
	timeout time.Duration
}

// Option configures a Detector
type Option func(*Detector)

// WithPath replaces $PATH for binary lookup
func WithPath(path string) Option {
	return func(d *Detector) {
		d.path = path
	}
}

// WithRunner replaces command execution
func WithRunner(r Runner) Option {
	return func(d *Detector) {
		d.runner = r
	}
}

// WithTimeout bounds each probe. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Detector) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDetector creates a detector using ExecRunner unless WithRunner is given
func NewDetector(opts ...Option) *Detector {
	d := &Detector{timeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(d)
	}
	if d.runner == nil {
		d.runner = ExecRunner{Path: d.path}
	}
	return d
}

// Detect probes clang and ld.lld concurrently and returns a Clang
// toolchain when both answer. Otherwise it probes gcc, and best effort
// ld, for a GCC toolchain. When neither compiler answers the error
// matches ErrToolchainNotFound.
func (d *Detector) Detect(ctx context.Context) (Toolchain, error) {
	var clangVersion, lldVersion string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := d.probe(gctx, "clang")
		clangVersion = v
		return err
	})
	g.Go(func() error {
		v, err := d.probe(gctx, "ld.lld")
		lldVersion = v
		return err
	})
	llvmErr := g.Wait()
	if llvmErr == nil {
		tc := Clang(clangVersion, lldVersion)
		log.Debug("Detected toolchain", "toolchain", tc.String())
		return tc, nil
	}
	log.Debug("LLVM toolchain unavailable", "error", llvmErr)

	gccVersion, gccErr := d.probe(ctx, "gcc")
	if gccErr != nil {
		log.Warn("No usable compiler toolchain found", "llvm_error", llvmErr, "gcc_error", gccErr)
		return Toolchain{}, errors.ErrToolchainNotFound.WithCause(stderrors.Join(llvmErr, gccErr))
	}

	ldVersion, err := d.probe(ctx, "ld")
	if err != nil {
		log.Debug("Could not determine ld version", "error", err)
	}

	tc := GCC(gccVersion, ldVersion)
	log.Debug("Detected toolchain", "toolchain", tc.String())
	return tc, nil
}

// Missing reports which of deps cannot be found in the detector's search path
func (d *Detector) Missing(deps Deps) []string {
	return Missing(deps, ExecRunner{Path: d.path}.LookPath)
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// probe runs "name --version" under the probe timeout and extracts the
// version number from the first line of output
func (d *Detector) probe(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.runner.Run(ctx, name, "--version")
	if err != nil {
		return "", errors.ErrToolchainProbe.WithMessagef("%s --version failed", name).WithCause(err)
	}

	version := ParseVersion(string(out))
	if version == "" {
		return "", errors.ErrToolchainProbe.WithMessagef("%s --version printed no version", name)
	}
	return version, nil
}

// ParseVersion extracts the first dotted version number from the first
// line of a --version banner
func ParseVersion(banner string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(banner), "\n")
	return versionPattern.FindString(first)
}
