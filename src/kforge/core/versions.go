package core

import (
	"context"
	"strconv"

	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/kforge/catalog"
	"github.com/bitswalk/kforge/src/kforge/patches"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List kernel releases",
	Long: `List kernel releases from kernel.org.

The list is cached for catalog.ttl (24h by default). When kernel.org cannot
be reached the stale cache, or failing that a built-in list, is shown.`,
	RunE: runVersions,
}

var patchesCmd = &cobra.Command{
	Use:   "patches <version>",
	Short: "List the patches known for a kernel version",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatches,
}

func init() {
	versionsCmd.Flags().Bool("refresh", false, "Ignore the cache and query kernel.org")
	versionsCmd.Flags().String("channel", "", "Only show one channel (mainline, stable, longterm)")

	patchesCmd.Flags().Bool("external", false, "Only show patches maintained outside the kernel tree")
	patchesCmd.Flags().String("feature", "", "Only show patches whose name or description mentions this")
}

func runVersions(cmd *cobra.Command, args []string) error {
	refresh, _ := cmd.Flags().GetBool("refresh")
	channel, _ := cmd.Flags().GetString("channel")

	res := newCatalog().Resolve(context.Background(), refresh)
	if channel != "" {
		want := catalog.ParseChannel(channel)
		filtered := []catalog.KernelVersion{}
		for _, kv := range res.Versions {
			if kv.Channel == want {
				filtered = append(filtered, kv)
			}
		}
		res.Versions = filtered
	}

	if res.Origin != catalog.OriginCache && res.Origin != catalog.OriginRemote {
		log.Warn("kernel.org is unreachable, showing an older list", "origin", res.Origin)
	}

	return render(res, func() {
		if len(res.Versions) == 0 {
			output.PrintMessage("No versions found.")
			return
		}
		rows := make([][]string, len(res.Versions))
		for i, kv := range res.Versions {
			released := "-"
			if kv.Released != nil {
				released = *kv.Released
			}
			rows[i] = []string{kv.Version, string(kv.Channel), released, strconv.FormatBool(kv.EOL)}
		}
		output.PrintTable([]string{"VERSION", "CHANNEL", "RELEASED", "EOL"}, rows)
	})
}

func runPatches(cmd *cobra.Command, args []string) error {
	external, _ := cmd.Flags().GetBool("external")
	feature, _ := cmd.Flags().GetString("feature")

	list := patches.PatchesFor(args[0])
	if external {
		list = patches.ExternalPatches(args[0])
	}
	if feature != "" {
		matching := map[string]bool{}
		for _, p := range patches.PatchesByFeature(args[0], feature) {
			matching[p.Name] = true
		}
		filtered := []patches.Patch{}
		for _, p := range list {
			if matching[p.Name] {
				filtered = append(filtered, p)
			}
		}
		list = filtered
	}

	return render(list, func() {
		if len(list) == 0 {
			output.PrintMessage("No patches known for " + args[0] + ".")
			return
		}
		rows := make([][]string, len(list))
		for i, p := range list {
			url := p.URL
			if url == "" {
				url = "-"
			}
			rows[i] = []string{p.Name, string(p.Source), p.Description, url}
		}
		output.PrintTable([]string{"NAME", "SOURCE", "DESCRIPTION", "URL"}, rows)
	})
}
