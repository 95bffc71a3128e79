// Package api exposes the planner over HTTP with gin.
package api

import (
	"github.com/bitswalk/kforge/src/common/logs"
	"github.com/bitswalk/kforge/src/common/version"
	"github.com/bitswalk/kforge/src/kforge/catalog"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/export"
	"github.com/bitswalk/kforge/src/kforge/plan"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the api package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Config holds the collaborators the handlers need. Plans and Exporter
// are optional; the routes that need them answer 503 without them.
type Config struct {
	Catalog  *catalog.Catalog
	Detector plan.Detector
	Plans    *db.PlanRepository
	Exporter *export.Exporter

	// DefaultArch is used when a plan request names no architecture
	DefaultArch string

	// Jobs is the parallelism rendered into make commands
	Jobs int

	Version *version.Info

	// RateLimit quotas apply per client IP; the zero value disables them
	RateLimit RateLimitConfig
}

// API holds the HTTP handlers
type API struct {
	catalog     *catalog.Catalog
	detector    plan.Detector
	plans       *db.PlanRepository
	exporter    *export.Exporter
	defaultArch string
	jobs        int
	version     *version.Info
	rateLimiter *RateLimiter
	limits      RateLimitConfig
}

// New creates an API from cfg
func New(cfg Config) *API {
	a := &API{
		catalog:     cfg.Catalog,
		detector:    cfg.Detector,
		plans:       cfg.Plans,
		exporter:    cfg.Exporter,
		defaultArch: cfg.DefaultArch,
		jobs:        cfg.Jobs,
		version:     cfg.Version,
	}
	if a.jobs < 1 {
		a.jobs = 1
	}
	if a.version == nil {
		a.version = version.New()
	}
	if cfg.RateLimit.Enabled {
		a.limits = cfg.RateLimit
		a.rateLimiter = NewRateLimiter(cfg.RateLimit)
	}
	return a
}

// Close stops the rate limiter's cleanup goroutine
func (a *API) Close() {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
}
