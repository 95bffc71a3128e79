package plan

import (
	"time"

	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/patches"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
)

// Document is the serialized form of a plan
type Document struct {
	Version        string              `json:"version"`
	Arch           kconfig.Arch        `json:"arch,omitempty"`
	Toolchain      toolchain.Toolchain `json:"toolchain"`
	LTO            toolchain.LTO       `json:"lto"`
	Patches        []patches.Patch     `json:"patches"`
	Config         string              `json:"config"`
	OptionCount    int                 `json:"option_count"`
	PrepareCommand []string            `json:"prepare_command"`
	MakeCommand    []string            `json:"make_command,omitempty"`
	Violations     []Violation         `json:"violations"`
	Fingerprint    string              `json:"fingerprint"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Document describes the plan for serialization. MakeCommand is omitted
// when parallelism is not a valid job count.
func (p *BuildPlan) Document(parallelism int) Document {
	doc := Document{
		Version:        p.version,
		Arch:           p.Arch(),
		Toolchain:      p.toolchain,
		LTO:            p.lto,
		Patches:        p.Patches(),
		Config:         p.Emit(),
		OptionCount:    p.config.Len(),
		PrepareCommand: p.PrepareCommand(),
		Violations:     p.Validate(),
		Fingerprint:    p.fingerprint,
		CreatedAt:      p.createdAt,
	}
	if cmd, err := p.MakeCommand(parallelism); err == nil {
		doc.MakeCommand = cmd
	}
	return doc
}

// Valid reports whether the document carries no violations
func (d Document) Valid() bool {
	return len(d.Violations) == 0
}
