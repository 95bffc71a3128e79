package db

import (
	"time"

	"github.com/bitswalk/kforge/src/kforge/plan"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
)

// PlanRecord is a saved build plan
type PlanRecord struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Arch        string              `json:"arch"`
	Toolchain   toolchain.Toolchain `json:"toolchain"`
	LTO         toolchain.LTO       `json:"lto"`
	Fingerprint string              `json:"fingerprint"`
	Config      string              `json:"config,omitempty"`
	Patches     []string            `json:"patches"`
	Violations  []plan.Violation    `json:"violations"`
	Valid       bool                `json:"valid"`

	// ExportBackend and ExportPrefix are set once the plan's artifacts
	// have been written to storage
	ExportBackend string `json:"export_backend,omitempty"`
	ExportPrefix  string `json:"export_prefix,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewPlanRecord captures a finalized plan for the history
func NewPlanRecord(p *plan.BuildPlan) *PlanRecord {
	violations := p.Validate()
	names := []string{}
	for _, pt := range p.Patches() {
		names = append(names, pt.Name)
	}
	return &PlanRecord{
		Version:     p.Version(),
		Arch:        string(p.Arch()),
		Toolchain:   p.Toolchain(),
		LTO:         p.LTO(),
		Fingerprint: p.Fingerprint(),
		Config:      p.Emit(),
		Patches:     names,
		Violations:  violations,
		Valid:       len(violations) == 0,
		CreatedAt:   p.CreatedAt(),
	}
}
