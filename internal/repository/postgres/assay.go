package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
)

type AssayStore struct {
	db DBTX
}

func NewAssayStore(db DBTX) *AssayStore {
	return &AssayStore{db: db}
}

const assayColumns = `id, sample_id, analysis_name, method, priority, results_due_by,
	status, analyst_id, started_at, finished_at, results, notes, created_at, updated_at`

func scanAssay(row scanner, a *models.Assay) error {
	return row.Scan(
		&a.ID,
		&a.SampleID,
		&a.AnalysisName,
		&a.Method,
		&a.Priority,
		&a.ResultsDueBy,
		&a.Status,
		&a.AnalystID,
		&a.StartedAt,
		&a.FinishedAt,
		&a.Results,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func (s *AssayStore) Create(ctx context.Context, a *models.Assay) error {
	query := `
		INSERT INTO assays (sample_id, analysis_name, method, priority, results_due_by,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING ` + assayColumns

	err := scanAssay(s.db.QueryRow(ctx, query,
		a.SampleID, a.AnalysisName, a.Method, a.Priority, a.ResultsDueBy, a.Status,
	), a)
	if err != nil {
		return translate("insert assay", err)
	}
	return nil
}

func (s *AssayStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Assay, error) {
	return s.get(ctx, `SELECT `+assayColumns+` FROM assays WHERE id = $1`, id)
}

// GetByIDForUpdate locks the assay row so that a concurrent cancel and
// results registration apply one after the other.
func (s *AssayStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assay, error) {
	return s.get(ctx, `SELECT `+assayColumns+` FROM assays WHERE id = $1 FOR UPDATE`, id)
}

func (s *AssayStore) get(ctx context.Context, query string, id uuid.UUID) (*models.Assay, error) {
	var a models.Assay
	if err := scanAssay(s.db.QueryRow(ctx, query, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assay: %w", err)
	}
	return &a, nil
}

func (s *AssayStore) Update(ctx context.Context, a *models.Assay) error {
	query := `
		UPDATE assays
		SET status = $2, analyst_id = $3, started_at = $4, finished_at = $5,
			results = $6, notes = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.QueryRow(ctx, query,
		a.ID, a.Status, a.AnalystID, a.StartedAt, a.FinishedAt, a.Results, a.Notes,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return translate("update assay", err)
	}
	return nil
}

func (s *AssayStore) List(ctx context.Context, filter repository.AssayFilter) ([]models.Assay, error) {
	var w where
	if filter.SampleID != nil {
		w.add("sample_id = $%d", *filter.SampleID)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		w.add("priority = $%d", filter.Priority)
	}
	if filter.AnalystID != nil {
		w.add("analyst_id = $%d", *filter.AnalystID)
	}

	// Same ordering as models.Priority.Rank.
	query := `SELECT ` + assayColumns + ` FROM assays ` + w.sql() + `
		ORDER BY CASE priority
			WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'NORMAL' THEN 2 WHEN 'LOW' THEN 1
			ELSE 0 END DESC,
			results_due_by, created_at`

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list assays: %w", err)
	}
	defer rows.Close()

	assays := make([]models.Assay, 0)
	for rows.Next() {
		var a models.Assay
		if err := scanAssay(rows, &a); err != nil {
			return nil, fmt.Errorf("scan assay: %w", err)
		}
		assays = append(assays, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assays: %w", err)
	}
	return assays, nil
}
