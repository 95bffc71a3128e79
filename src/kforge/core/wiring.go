package core

import (
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bitswalk/kforge/src/common/cli"
	"github.com/bitswalk/kforge/src/common/paths"
	"github.com/bitswalk/kforge/src/kforge/catalog"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/export"
	"github.com/bitswalk/kforge/src/kforge/storage"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// newCatalog builds the version catalog from catalog.* settings
func newCatalog() *catalog.Catalog {
	source := catalog.NewKernelOrgSource(
		catalog.WithURL(viper.GetString("catalog.url")),
		catalog.WithUserAgent(VersionInfo.UserAgent()),
		catalog.WithHTTPClient(&http.Client{Timeout: cli.GetDuration("catalog.http_timeout", 30*time.Second)}),
	)

	cachePath := catalog.DefaultCachePath()
	if dir := cli.GetExpandedString("catalog.cache_dir"); dir != "" {
		cachePath = filepath.Join(dir, catalog.CacheFileName)
	}

	return catalog.New(source,
		catalog.WithCache(catalog.NewCache(afero.NewOsFs(), cachePath)),
		catalog.WithTTL(cli.GetDuration("catalog.ttl", catalog.DefaultTTL)),
	)
}

// newDetector builds the toolchain detector from toolchain.* settings
func newDetector() *toolchain.Detector {
	return toolchain.NewDetector(
		toolchain.WithPath(viper.GetString("toolchain.path")),
		toolchain.WithTimeout(cli.GetDuration("toolchain.timeout", toolchain.DefaultProbeTimeout)),
	)
}

// jobs returns plan.jobs, or the CPU count when unset
func jobs() int {
	if n := viper.GetInt("plan.jobs"); n != 0 {
		return n
	}
	return runtime.NumCPU()
}

// openDatabase opens the plan history
func openDatabase() (*db.Database, error) {
	return db.New(db.Config{
		PersistPath: paths.Expand(viper.GetString("database.path")),
		LoadOnStart: true,
	})
}

// storageConfig maps storage.* settings onto a backend config. Setting
// an S3 endpoint selects S3 regardless of storage.type.
func storageConfig() storage.Config {
	cfg := storage.Config{
		Type: viper.GetString("storage.type"),
		Local: storage.LocalConfig{
			BasePath: viper.GetString("storage.local.path"),
		},
		S3: storage.S3Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          viper.GetString("storage.s3.bucket"),
			Prefix:          viper.GetString("storage.s3.prefix"),
			AccessKeyID:     viper.GetString("storage.s3.access_key"),
			SecretAccessKey: viper.GetString("storage.s3.secret_key"),
			UsePathStyle:    viper.GetBool("storage.s3.path_style"),
		},
	}
	if cfg.S3.Endpoint != "" {
		cfg.Type = "s3"
	}
	return cfg
}

// newExporter opens the configured storage backend
func newExporter() (*export.Exporter, error) {
	backend, err := storage.New(storageConfig())
	if err != nil {
		return nil, err
	}
	log.Debug("Storage ready", "type", backend.Type(), "location", backend.Location())
	return export.New(backend, export.WithParallelism(jobs())), nil
}
