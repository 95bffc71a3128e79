package core

import (
	"context"
	"strings"

	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
	"github.com/spf13/cobra"
)

var toolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "Detect the compiler toolchain",
	Long: `Detect the compiler toolchain. clang with ld.lld is preferred and
enables ThinLTO; gcc is used otherwise. Missing build dependencies are
listed on stderr.`,
	RunE: runToolchain,
}

func runToolchain(cmd *cobra.Command, args []string) error {
	det := newDetector()
	tc, err := det.Detect(context.Background())
	if err != nil {
		return err
	}

	missing := det.Missing(toolchain.DepsFor(tc.Kind))
	if len(missing) > 0 {
		log.Warn("Missing build dependencies", "binaries", strings.Join(missing, ", "))
	}

	data := struct {
		toolchain.Toolchain
		DefaultLTO toolchain.LTO     `json:"default_lto"`
		Make       map[string]string `json:"make"`
		Missing    []string          `json:"missing"`
	}{tc, tc.DefaultLTO(), toolchain.MakeVariables(tc.Kind), missing}

	return render(data, func() {
		output.PrintMessage("Toolchain: " + tc.String())
		output.PrintMessage("Default LTO: " + string(tc.DefaultLTO()))
		if len(missing) > 0 {
			output.PrintMessage("Missing: " + strings.Join(missing, ", "))
		}
	})
}
