package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/kforge/plan"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
	"github.com/google/uuid"
)

// DefaultListLimit bounds List when no limit is given
const DefaultListLimit = 50

const planColumns = `id, version, arch, toolchain, lto, fingerprint, config, patches, violations, valid, export_backend, export_prefix, created_at`

// PlanRepository handles plan history operations
type PlanRepository struct {
	db *Database
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *Database) *PlanRepository {
	return &PlanRepository{db: db}
}

// Save inserts a plan record, assigning an ID and timestamp when missing
func (r *PlanRepository) Save(rec *PlanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Patches == nil {
		rec.Patches = []string{}
	}
	if rec.Violations == nil {
		rec.Violations = []plan.Violation{}
	}

	toolchainJSON, err := json.Marshal(rec.Toolchain)
	if err != nil {
		return fmt.Errorf("failed to serialize toolchain: %w", err)
	}
	patchesJSON, err := json.Marshal(rec.Patches)
	if err != nil {
		return fmt.Errorf("failed to serialize patches: %w", err)
	}
	violationsJSON, err := json.Marshal(rec.Violations)
	if err != nil {
		return fmt.Errorf("failed to serialize violations: %w", err)
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, err = r.db.DB().Exec(`
		INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Version, rec.Arch, string(toolchainJSON), string(rec.LTO), rec.Fingerprint,
		rec.Config, string(patchesJSON), string(violationsJSON), rec.Valid,
		rec.ExportBackend, rec.ExportPrefix, rec.CreatedAt.UTC())
	if err != nil {
		return errors.ErrDatabaseQuery.WithMessage("Failed to save plan").WithCause(err)
	}

	log.Debug("Saved plan", "id", rec.ID, "version", rec.Version, "fingerprint", rec.Fingerprint)
	return nil
}

// MarkExported records where a saved plan's artifacts live
func (r *PlanRepository) MarkExported(id, backend, prefix string) error {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	result, err := r.db.DB().Exec(`UPDATE plans SET export_backend = ?, export_prefix = ? WHERE id = ?`, backend, prefix, id)
	if err != nil {
		return errors.ErrDatabaseQuery.WithMessage("Failed to update plan").WithCause(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrPlanNotFound.WithMessagef("plan not found: %s", id)
	}
	return nil
}

// Get retrieves a plan by ID
func (r *PlanRepository) Get(id string) (*PlanRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	row := r.db.DB().QueryRow(`SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	rec, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrPlanNotFound.WithMessagef("plan not found: %s", id)
	}
	if err != nil {
		return nil, errors.ErrDatabaseQuery.WithMessage("Failed to get plan").WithCause(err)
	}
	return rec, nil
}

// List returns the most recent plans, newest first. Config text is omitted.
func (r *PlanRepository) List(limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return r.query(`SELECT `+planColumns+` FROM plans ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// ListByVersion returns every plan for a kernel version, newest first.
// Config text is omitted.
func (r *PlanRepository) ListByVersion(version string) ([]PlanRecord, error) {
	return r.query(`SELECT `+planColumns+` FROM plans WHERE version = ? ORDER BY created_at DESC, rowid DESC`, version)
}

// Count returns the number of saved plans
func (r *PlanRepository) Count() (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int
	if err := r.db.DB().QueryRow(`SELECT COUNT(*) FROM plans`).Scan(&n); err != nil {
		return 0, errors.ErrDatabaseQuery.WithCause(err)
	}
	return n, nil
}

func (r *PlanRepository) query(query string, args ...any) ([]PlanRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows, err := r.db.DB().Query(query, args...)
	if err != nil {
		return nil, errors.ErrDatabaseQuery.WithMessage("Failed to list plans").WithCause(err)
	}
	defer rows.Close()

	records := []PlanRecord{}
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, errors.ErrDatabaseQuery.WithMessage("Failed to scan plan").WithCause(err)
		}
		rec.Config = ""
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseQuery.WithMessage("Error iterating plans").WithCause(err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*PlanRecord, error) {
	var (
		rec                                   PlanRecord
		lto                                   string
		toolchainJSON, patchesJSON, violsJSON string
	)
	if err := s.Scan(&rec.ID, &rec.Version, &rec.Arch, &toolchainJSON, &lto, &rec.Fingerprint,
		&rec.Config, &patchesJSON, &violsJSON, &rec.Valid,
		&rec.ExportBackend, &rec.ExportPrefix, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.LTO = toolchain.LTO(lto)

	if err := json.Unmarshal([]byte(toolchainJSON), &rec.Toolchain); err != nil {
		return nil, fmt.Errorf("failed to deserialize toolchain: %w", err)
	}
	if err := json.Unmarshal([]byte(patchesJSON), &rec.Patches); err != nil {
		return nil, fmt.Errorf("failed to deserialize patches: %w", err)
	}
	if err := json.Unmarshal([]byte(violsJSON), &rec.Violations); err != nil {
		return nil, fmt.Errorf("failed to deserialize violations: %w", err)
	}
	return &rec, nil
}
