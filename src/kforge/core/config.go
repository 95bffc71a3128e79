package core

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/kernel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config <version>",
	Short: "Generate a kernel .config",
	Long: `Generate a kernel .config for a version without planning a build.

The baseline for --arch is used unless --from names an existing .config.
Options unavailable in the target version are reported on stderr.`,
	RunE: runConfig,
}

// configFlags registers the options shared by config and plan
func configFlags(cmd *cobra.Command) {
	cmd.Flags().String("arch", "", "Target architecture (x86_64, arm64); defaults to plan.arch")
	cmd.Flags().Bool("desktop", false, "Apply the desktop preset")
	cmd.Flags().StringSlice("bloat", nil, "Bloat categories to remove (see 'kforge config --list-bloat')")
	cmd.Flags().StringArray("set", nil, "Set an option, NAME=VALUE (repeatable)")
}

func init() {
	configFlags(configCmd)
	configCmd.Flags().String("from", "", "Start from an existing .config file")
	configCmd.Flags().Bool("list-bloat", false, "List the bloat categories and exit")
	configCmd.Args = func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list-bloat"); list {
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	}
}

// parseSets turns NAME=VALUE flags into an option map
func parseSets(sets []string) (map[string]string, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, errors.ErrInvalidFieldValue.WithMessagef("--set expects NAME=VALUE, got %q", s)
		}
		out[name] = value
	}
	return out, nil
}

func archFlag(cmd *cobra.Command) string {
	if arch, _ := cmd.Flags().GetString("arch"); arch != "" {
		return arch
	}
	return viper.GetString("plan.arch")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list-bloat"); list {
		return listBloat()
	}

	version := kernel.Normalize(args[0])
	from, _ := cmd.Flags().GetString("from")
	desktop, _ := cmd.Flags().GetBool("desktop")
	bloat, _ := cmd.Flags().GetStringSlice("bloat")
	rawSets, _ := cmd.Flags().GetStringArray("set")

	sets, err := parseSets(rawSets)
	if err != nil {
		return err
	}

	var b *kconfig.Builder
	if from != "" {
		f, err := os.Open(from)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", from, err)
		}
		b, err = kconfig.ParseConfig(f)
		f.Close()
		if err != nil {
			return err
		}
	} else {
		arch, err := kconfig.ParseArch(archFlag(cmd))
		if err != nil {
			return err
		}
		b = kconfig.NewBuilder()
		if err := b.ApplyBaseline(arch); err != nil {
			return err
		}
	}

	if desktop {
		b.ApplyDesktopOptimizations()
	}
	if len(bloat) > 0 {
		if err := b.ApplyBloatRemoval(bloat...); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.Set(name, sets[name])
	}
	if err := b.Err(); err != nil {
		return err
	}

	cfg := b.Freeze()
	violations := cfg.Validate(version)
	for _, v := range violations {
		log.Warn(v.Message, "code", v.Code, "option", v.Option)
	}

	data := struct {
		Version    string              `json:"version"`
		Arch       kconfig.Arch        `json:"arch,omitempty"`
		Options    []kconfig.Option    `json:"options"`
		Violations []kconfig.Violation `json:"violations"`
	}{version, cfg.Arch(), cfg.Options(), violations}

	return render(data, func() {
		output.PrintRaw(cfg.Emit())
	})
}

func listBloat() error {
	cats := kconfig.Categories()
	return render(cats, func() {
		rows := make([][]string, len(cats))
		for i, c := range cats {
			rows[i] = []string{c.Slug, c.Name, fmt.Sprintf("%d", len(c.Options))}
		}
		output.PrintTable([]string{"SLUG", "NAME", "OPTIONS"}, rows)
	})
}
