package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpand_EnvVar(t *testing.T) {
	t.Setenv("KFORGE_TEST_ROOT", "/srv/kforge")

	if got := Expand("$KFORGE_TEST_ROOT/cache"); got != "/srv/kforge/cache" {
		t.Errorf("Expand() = %q, want %q", got, "/srv/kforge/cache")
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome() changed absolute path to %q", got)
	}
	if got := ExpandHome("~/x"); got == "~/x" || filepath.Base(got) != "x" {
		t.Errorf("ExpandHome(~/x) = %q, want home-relative path", got)
	}
}

func TestCacheDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honoured on linux")
	}
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", root)

	if got, want := CacheDir(), filepath.Join(root, AppName); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}

func TestDataDir_XDG(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_DATA_HOME", root)

	if got, want := DataDir(), filepath.Join(root, AppName); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
}

func TestEnsureDirAndIsFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "versions.json")

	if err := EnsureDir(target); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	if IsFile(target) {
		t.Fatal("IsFile() should be false before the file is written")
	}
	if err := os.WriteFile(target, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !IsFile(target) || !Exists(target) {
		t.Error("expected written file to exist")
	}
	if IsFile(filepath.Dir(target)) {
		t.Error("IsFile() should be false for a directory")
	}
}
