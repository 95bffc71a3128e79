package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/export"
	"github.com/bitswalk/kforge/src/kforge/plan"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <version>",
	Short: "Plan a kernel build",
	Long: `Plan a kernel build: detect the toolchain, assemble the .config, attach
the known patches and print the make command.

A plan with violations is still printed; the command then exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	recipeFlags(planCmd)
	planCmd.Flags().String("config-out", "", "Write the generated .config to this file")
}

// recipeFlags registers the flags read by recipeFromFlags, plus
// --jobs, --save and --export
func recipeFlags(cmd *cobra.Command) {
	configFlags(cmd)
	cmd.Flags().Bool("thin-lto", false, "Force ThinLTO")
	cmd.Flags().String("lto", "", "Force an LTO mode (none, thin, full)")
	cmd.Flags().String("toolchain", "", "Skip detection and use clang or gcc")
	cmd.Flags().IntP("jobs", "j", 0, "Parallel make jobs; defaults to plan.jobs or the CPU count")
	cmd.Flags().Bool("save", false, "Save the plan to the history")
	cmd.Flags().Bool("export", false, "Upload the plan's artifacts to storage")
}

// recipeFromFlags collects the plan flags into a recipe
func recipeFromFlags(cmd *cobra.Command, version string) (plan.Recipe, error) {
	r := plan.Recipe{Version: version, Arch: archFlag(cmd)}
	r.Toolchain, _ = cmd.Flags().GetString("toolchain")
	r.LTO, _ = cmd.Flags().GetString("lto")
	r.ThinLTO, _ = cmd.Flags().GetBool("thin-lto")
	r.Desktop, _ = cmd.Flags().GetBool("desktop")
	r.Bloat, _ = cmd.Flags().GetStringSlice("bloat")

	rawSets, _ := cmd.Flags().GetStringArray("set")
	sets, err := parseSets(rawSets)
	if err != nil {
		return r, err
	}
	r.Options = sets
	return r, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	recipe, err := recipeFromFlags(cmd, args[0])
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("jobs")
	if n == 0 {
		n = jobs()
	}
	save, _ := cmd.Flags().GetBool("save")
	doExport, _ := cmd.Flags().GetBool("export")
	configOut, _ := cmd.Flags().GetString("config-out")

	p, err := recipe.Build(ctx, plan.WithDetector(newDetector()))
	if err != nil {
		return err
	}
	if _, err := p.MakeCommand(n); err != nil {
		return err
	}

	if configOut != "" {
		if err := os.WriteFile(configOut, []byte(p.Emit()), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", configOut, err)
		}
		log.Info("Wrote config", "path", configOut)
	}

	var manifest *export.Manifest
	if doExport {
		exporter, err := newExporter()
		if err != nil {
			return err
		}
		if manifest, err = exporter.Export(ctx, p); err != nil {
			return err
		}
	}

	id := ""
	if save {
		if id, err = savePlan(p, manifest); err != nil {
			return err
		}
	}

	doc := p.Document(n)
	data := struct {
		ID     string           `json:"id,omitempty"`
		Plan   plan.Document    `json:"plan"`
		Export *export.Manifest `json:"export,omitempty"`
	}{id, doc, manifest}

	err = render(data, func() {
		output.PrintMessage(p.Summary())
		output.PrintMessage("")
		for _, pt := range doc.Patches {
			line := fmt.Sprintf("  %-12s %-9s %s", pt.Name, pt.Source, pt.Description)
			output.PrintMessage(strings.TrimRight(line, " "))
		}
		output.PrintMessage("")
		output.PrintMessage("$ " + strings.Join(doc.PrepareCommand, " "))
		output.PrintMessage("$ " + strings.Join(doc.MakeCommand, " "))
		if manifest != nil {
			output.PrintMessage("")
			output.PrintMessage("Exported to " + manifest.Location + " under " + manifest.Prefix)
		}
		if id != "" {
			output.PrintMessage("Saved as " + id)
		}
		for _, v := range doc.Violations {
			output.PrintMessage("! " + v.Message)
		}
	})
	if err != nil {
		return err
	}
	return p.Err()
}

// savePlan stores p in the history and persists the database
func savePlan(p *plan.BuildPlan, manifest *export.Manifest) (string, error) {
	database, err := openDatabase()
	if err != nil {
		return "", err
	}

	rec := db.NewPlanRecord(p)
	if manifest != nil {
		rec.ExportBackend = manifest.Backend
		rec.ExportPrefix = manifest.Prefix
	}
	saveErr := db.NewPlanRepository(database).Save(rec)

	if err := database.Shutdown(); err != nil && saveErr == nil {
		saveErr = err
	}
	if saveErr != nil {
		return "", saveErr
	}
	return rec.ID, nil
}
