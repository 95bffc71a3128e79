package core

import (
	"context"
	"sort"
	"strings"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/kforge/api"
	"github.com/bitswalk/kforge/src/kforge/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Use a kforge server",
	Long: `Run planning commands against a kforge server started with 'kforge serve'.

The server detects its own toolchain and keeps its own history and storage.`,
}

var remoteHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the server's health",
	Args:  cobra.NoArgs,
	RunE:  runRemoteHealth,
}

var remotePlanCmd = &cobra.Command{
	Use:   "plan <version>",
	Short: "Plan a kernel build on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemotePlan,
}

var remoteHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List the server's saved plans",
	Args:  cobra.NoArgs,
	RunE:  runRemoteHistory,
}

var remoteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a plan saved on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteShow,
}

func init() {
	remoteCmd.PersistentFlags().String("server", "", "Server URL (default: remote.url)")
	_ = viper.BindPFlag("remote.url", remoteCmd.PersistentFlags().Lookup("server"))
	viper.SetDefault("remote.url", "http://127.0.0.1:8420")

	recipeFlags(remotePlanCmd)
	remoteHistoryCmd.Flags().Int("limit", 0, "Maximum number of plans")
	remoteHistoryCmd.Flags().String("version", "", "Only show plans for this kernel version")

	remoteCmd.AddCommand(remoteHealthCmd)
	remoteCmd.AddCommand(remotePlanCmd)
	remoteCmd.AddCommand(remoteHistoryCmd)
	remoteCmd.AddCommand(remoteShowCmd)
	rootCmd.AddCommand(remoteCmd)
}

func newClient() *client.Client {
	c := client.New(viper.GetString("remote.url"))
	c.UserAgent = VersionInfo.UserAgent()
	return c
}

func runRemoteHealth(cmd *cobra.Command, args []string) error {
	resp, err := newClient().Health(context.Background())
	if resp == nil {
		return err
	}

	if renderErr := render(resp, func() {
		output.PrintMessage("Status: " + resp.Status)
		names := make([]string, 0, len(resp.Checks))
		for name := range resp.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			output.PrintMessage("  " + name + ": " + resp.Checks[name])
		}
	}); renderErr != nil {
		return renderErr
	}
	return err
}

func runRemotePlan(cmd *cobra.Command, args []string) error {
	recipe, err := recipeFromFlags(cmd, args[0])
	if err != nil {
		return err
	}
	// the server applies its own plan.arch
	recipe.Arch, _ = cmd.Flags().GetString("arch")

	req := api.CreatePlanRequest{Recipe: recipe}
	req.Jobs, _ = cmd.Flags().GetInt("jobs")
	req.Save, _ = cmd.Flags().GetBool("save")
	req.Export, _ = cmd.Flags().GetBool("export")

	resp, err := newClient().CreatePlan(context.Background(), req)
	if err != nil {
		return err
	}

	err = render(resp, func() {
		output.PrintMessage(resp.Summary)
		output.PrintMessage("")
		output.PrintMessage("$ " + strings.Join(resp.Plan.PrepareCommand, " "))
		output.PrintMessage("$ " + strings.Join(resp.Plan.MakeCommand, " "))
		if resp.Export != nil {
			output.PrintMessage("")
			output.PrintMessage("Exported to " + resp.Export.Location + " under " + resp.Export.Prefix)
		}
		if resp.ID != "" {
			output.PrintMessage("Saved as " + resp.ID)
		}
		for _, v := range resp.Plan.Violations {
			output.PrintMessage("! " + v.Message)
		}
	})
	if err != nil {
		return err
	}
	if !resp.Valid {
		msgs := make([]string, len(resp.Plan.Violations))
		for i, v := range resp.Plan.Violations {
			msgs[i] = v.Message
		}
		return errors.ErrPlanInvalid.WithMessage(strings.Join(msgs, "; "))
	}
	return nil
}

func runRemoteHistory(cmd *cobra.Command, args []string) error {
	opts := &client.ListOptions{}
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Version, _ = cmd.Flags().GetString("version")

	resp, err := newClient().ListPlans(context.Background(), opts)
	if err != nil {
		return err
	}
	return render(resp.Plans, func() { printRecords(resp.Plans) })
}

func runRemoteShow(cmd *cobra.Command, args []string) error {
	rec, err := newClient().GetPlan(context.Background(), args[0])
	if err != nil {
		return err
	}
	return render(rec, func() {
		output.PrintRaw(rec.Config)
	})
}
