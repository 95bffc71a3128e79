package api

import (
	"net/http"
	"time"

	"github.com/bitswalk/kforge/src/common/version"
	"github.com/gin-gonic/gin"
)

func (a *API) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, APIInfo{
		Name:        "kforge",
		Description: "Kernel build planner",
		Version:     a.version.Version,
		APIVersions: []string{"v1"},
		Endpoints: APIInfoEndpoints{
			Health:   "/v1/health",
			Version:  "/v1/version",
			Versions: "/v1/versions",
			Plans:    "/v1/plans",
		},
	})
}

// handleHealth reports healthy unless a configured dependency is down
func (a *API) handleHealth(c *gin.Context) {
	checks := map[string]string{}
	healthy := true

	if a.plans != nil {
		if _, err := a.plans.Count(); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if a.exporter != nil {
		if err := a.exporter.Ping(c.Request.Context()); err != nil {
			checks["storage"] = err.Error()
			healthy = false
		} else {
			checks["storage"] = "ok"
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (a *API) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Version:        a.version.Version,
		ReleaseName:    a.version.ReleaseName,
		ReleaseVersion: a.version.ReleaseVersion,
		BuildDate:      a.version.BuildDate,
		GitCommit:      a.version.GitCommit,
		GoVersion:      version.GoVersion(),
	})
}
