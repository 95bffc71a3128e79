// Package core provides the kforge commands and the HTTP server.
package core

import (
	"fmt"
	"os"

	"github.com/bitswalk/kforge/src/common/cli"
	"github.com/bitswalk/kforge/src/common/logs"
	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/common/version"
	"github.com/bitswalk/kforge/src/kforge/api"
	"github.com/bitswalk/kforge/src/kforge/catalog"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/export"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/plan"
	"github.com/bitswalk/kforge/src/kforge/storage"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	log = logs.NewDefault()

	cfgFile string
)

// Linker variables, set via ldflags at build time
var (
	Version        = "dev"
	ReleaseName    = "Forge"
	ReleaseVersion = "0.0.0"
	BuildDate      = "unknown"
	GitCommit      = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kforge",
	Short: "Kernel build planner",
	Long: `kforge plans Linux kernel builds.

It lists kernel.org releases, resolves the performance patches known for a
release, assembles a .config from presets and detects the compiler toolchain.
The resulting plan carries the config, the patches and the make command.
kforge never runs the build itself.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.ReleaseName = ReleaseName
	VersionInfo.ReleaseVersion = ReleaseVersion
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err)
		os.Exit(1)
	}
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "/etc/kforge/kforge.yaml")
	cli.RegisterLogFlags(rootCmd)

	rootCmd.PersistentFlags().StringP("output", "o", string(output.FormatAuto), "Output format (auto, table, json, yaml)")
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	viper.SetDefault("output", string(output.FormatAuto))
	viper.SetDefault("catalog.url", catalog.DefaultReleasesURL)
	viper.SetDefault("catalog.ttl", catalog.DefaultTTL.String())
	viper.SetDefault("catalog.cache_dir", "")
	viper.SetDefault("catalog.http_timeout", "30s")
	viper.SetDefault("toolchain.path", "")
	viper.SetDefault("toolchain.timeout", toolchain.DefaultProbeTimeout.String())
	viper.SetDefault("plan.arch", string(kconfig.ArchX86_64))
	viper.SetDefault("plan.jobs", 0)
	viper.SetDefault("database.path", db.DefaultConfig().PersistPath)
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.path", storage.DefaultConfig().Local.BasePath)
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.bucket", "kforge")
	viper.SetDefault("storage.s3.prefix", "")
	viper.SetDefault("storage.s3.path_style", true)
	viper.SetDefault("server.bind", "127.0.0.1")
	viper.SetDefault("server.port", 8420)
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.plans_per_minute", 30)
	viper.SetDefault("server.rate_limit.requests_per_minute", 300)

	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(patchesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolchainCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	opts := cli.DefaultConfigOptions("kforge", "KFORGE")
	opts.ConfigFile = cfgFile

	if err := cli.InitConfig(opts); err != nil {
		return err
	}

	setLogger(cli.InitLogger("kforge"))
	return nil
}

// setLogger hands l to every package that logs
func setLogger(l *logs.Logger) {
	log = l
	catalog.SetLogger(l)
	kconfig.SetLogger(l)
	toolchain.SetLogger(l)
	plan.SetLogger(l)
	storage.SetLogger(l)
	export.SetLogger(l)
	db.SetLogger(l)
	api.SetLogger(l)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		if printed, err := output.Print(format, VersionInfo.Map()); printed || err != nil {
			return err
		}
		output.PrintMessage(VersionInfo.Full())
		return nil
	},
}

// outputFormat resolves the --output flag
func outputFormat() (output.Format, error) {
	return output.Resolve(viper.GetString("output"))
}

// render prints data as JSON/YAML, or calls table for table output
func render(data any, table func()) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	printed, err := output.Print(format, data)
	if err != nil {
		return fmt.Errorf("failed to print output: %w", err)
	}
	if !printed {
		table()
	}
	return nil
}
