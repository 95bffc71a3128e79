package api

import (
	"github.com/bitswalk/kforge/src/kforge/catalog"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/export"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/patches"
	"github.com/bitswalk/kforge/src/kforge/plan"
)

// APIInfo is the root discovery response
type APIInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Version     string           `json:"version"`
	APIVersions []string         `json:"api_versions"`
	Endpoints   APIInfoEndpoints `json:"endpoints"`
}

// APIInfoEndpoints lists the main endpoints
type APIInfoEndpoints struct {
	Health   string `json:"health"`
	Version  string `json:"version"`
	Versions string `json:"versions"`
	Plans    string `json:"plans"`
}

// HealthResponse is returned by /v1/health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// VersionResponse is returned by /v1/version
type VersionResponse struct {
	Version        string `json:"version"`
	ReleaseName    string `json:"release_name"`
	ReleaseVersion string `json:"release_version"`
	BuildDate      string `json:"build_date"`
	GitCommit      string `json:"git_commit"`
	GoVersion      string `json:"go_version"`
}

// VersionListResponse is returned by /v1/versions
type VersionListResponse struct {
	catalog.Result
	Count int `json:"count"`
}

// PatchListResponse is returned by /v1/versions/:version/patches
type PatchListResponse struct {
	Version string          `json:"version"`
	Patches []patches.Patch `json:"patches"`
	Count   int             `json:"count"`
}

// BloatCategoryListResponse is returned by /v1/bloat-categories
type BloatCategoryListResponse struct {
	Categories []kconfig.Category `json:"categories"`
}

// CreatePlanRequest is the body of POST /v1/plans
type CreatePlanRequest struct {
	plan.Recipe

	// Jobs overrides the server's make parallelism
	Jobs int `json:"jobs,omitempty"`

	// Save stores the plan in the history
	Save bool `json:"save,omitempty"`

	// Export uploads the plan's artifacts to storage
	Export bool `json:"export,omitempty"`
}

// PlanResponse is returned by POST /v1/plans
type PlanResponse struct {
	ID      string           `json:"id,omitempty"`
	Valid   bool             `json:"valid"`
	Summary string           `json:"summary"`
	Plan    plan.Document    `json:"plan"`
	Export  *export.Manifest `json:"export,omitempty"`
}

// PlanListResponse is returned by GET /v1/plans
type PlanListResponse struct {
	Plans []db.PlanRecord `json:"plans"`
	Count int             `json:"count"`
}
