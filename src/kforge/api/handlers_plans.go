package api

import (
	"net/http"
	"strconv"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/kernel"
	"github.com/bitswalk/kforge/src/kforge/plan"
	"github.com/gin-gonic/gin"
)

// MaxListLimit bounds GET /v1/plans?limit=
const MaxListLimit = 500

// handleCreatePlan builds and validates a plan. An invalid plan is still
// returned with 200; its violations are part of the body.
func (a *API) handleCreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Arch == "" {
		req.Arch = a.defaultArch
	}
	jobs := a.jobs
	if req.Jobs != 0 {
		jobs = req.Jobs
	}
	if jobs < 1 {
		respondError(c, errors.ErrInvalidParallelism.WithMessagef("jobs must be at least 1, got %d", jobs))
		return
	}
	if req.Save && a.plans == nil {
		respondError(c, errors.ErrDatabaseConnection.WithMessage("Plan history is not configured"))
		return
	}
	if req.Export && a.exporter == nil {
		respondError(c, errors.ErrStorageUnavailable.WithMessage("Artifact storage is not configured"))
		return
	}

	var opts []plan.Option
	if a.detector != nil {
		opts = append(opts, plan.WithDetector(a.detector))
	}
	p, err := req.Recipe.Build(c.Request.Context(), opts...)
	if err != nil {
		respondError(c, err)
		return
	}

	doc := p.Document(jobs)
	resp := PlanResponse{
		Valid:   doc.Valid(),
		Summary: p.Summary(),
		Plan:    doc,
	}

	var rec *db.PlanRecord
	if req.Save {
		rec = db.NewPlanRecord(p)
		if err := a.plans.Save(rec); err != nil {
			respondError(c, err)
			return
		}
		resp.ID = rec.ID
	}

	if req.Export {
		manifest, err := a.exporter.Export(c.Request.Context(), p)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Export = manifest
		if rec != nil {
			if err := a.plans.MarkExported(rec.ID, manifest.Backend, manifest.Prefix); err != nil {
				log.Warn("Failed to record export", "id", rec.ID, "error", err)
			}
		}
	}

	log.Info("Planned kernel build",
		"version", p.Version(),
		"fingerprint", p.Fingerprint(),
		"valid", resp.Valid,
		"saved", resp.ID != "",
		"exported", resp.Export != nil)

	status := http.StatusOK
	if resp.ID != "" {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (a *API) handleListPlans(c *gin.Context) {
	if a.plans == nil {
		respondError(c, errors.ErrDatabaseConnection.WithMessage("Plan history is not configured"))
		return
	}

	var (
		records []db.PlanRecord
		err     error
	)
	if v := c.Query("version"); v != "" {
		records, err = a.plans.ListByVersion(kernel.Normalize(v))
	} else {
		limit := db.DefaultListLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, perr := strconv.Atoi(raw)
			if perr != nil || parsed < 1 || parsed > MaxListLimit {
				respondError(c, errors.ErrInvalidFieldValue.WithMessagef("limit must be between 1 and %d", MaxListLimit))
				return
			}
			limit = parsed
		}
		records, err = a.plans.List(limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanListResponse{Plans: records, Count: len(records)})
}

func (a *API) handleGetPlan(c *gin.Context) {
	if a.plans == nil {
		respondError(c, errors.ErrDatabaseConnection.WithMessage("Plan history is not configured"))
		return
	}

	rec, err := a.plans.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
