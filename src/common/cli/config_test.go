package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestInitConfig_ReadsFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "kforge.yaml")
	content := "catalog:\n  ttl: 12h\nplan:\n  jobs: 8\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KFORGE_PLAN_ARCH", "arm64")

	opts := DefaultConfigOptions("kforge", "KFORGE")
	opts.ConfigFile = cfg
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig() error: %v", err)
	}

	if got := viper.GetInt("plan.jobs"); got != 8 {
		t.Errorf("plan.jobs = %d, want 8", got)
	}
	if got := viper.GetString("plan.arch"); got != "arm64" {
		t.Errorf("plan.arch = %q, want arm64", got)
	}
	if got := GetDuration("catalog.ttl", time.Hour); got != 12*time.Hour {
		t.Errorf("catalog.ttl = %v, want 12h", got)
	}
}

func TestInitConfig_MissingFileIsNotAnError(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	opts := ConfigOptions{
		ConfigName:  "does-not-exist",
		ConfigType:  "yaml",
		SearchPaths: []string{t.TempDir()},
	}
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig() error: %v", err)
	}
}

func TestGetDuration(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("a", "90s")
	viper.Set("b", 30)
	viper.Set("c", "garbage")

	tests := []struct {
		key  string
		want time.Duration
	}{
		{"a", 90 * time.Second},
		{"b", 30 * time.Second},
		{"c", time.Minute},
		{"missing", time.Minute},
	}
	for _, tt := range tests {
		if got := GetDuration(tt.key, time.Minute); got != tt.want {
			t.Errorf("GetDuration(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRegisterLogFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "kforge"}
	RegisterLogFlags(cmd)

	if err := cmd.PersistentFlags().Set("log-level", "debug"); err != nil {
		t.Fatal(err)
	}
	if got := viper.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want debug", got)
	}
	if l := InitLogger("kforge"); l == nil {
		t.Fatal("InitLogger() returned nil")
	}
}
