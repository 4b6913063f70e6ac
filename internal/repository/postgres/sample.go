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

type SampleStore struct {
	db DBTX
}

func NewSampleStore(db DBTX) *SampleStore {
	return &SampleStore{db: db}
}

const sampleColumns = `id, code, client_id, received_by, type, matrix, description,
	quantity, unit, lot, sampled_at, sampled_by, shipped_at, delivery_method,
	receipt_condition, receipt_notes, storage_condition, risk_level, client_signature,
	platform_version, state, accepted, accepted_at, accepted_by, registered_at,
	received_at, updated_at`

func scanSample(row scanner, s *models.Sample) error {
	return row.Scan(
		&s.ID,
		&s.Code,
		&s.ClientID,
		&s.ReceivedBy,
		&s.Type,
		&s.Matrix,
		&s.Description,
		&s.Quantity,
		&s.Unit,
		&s.Lot,
		&s.SampledAt,
		&s.SampledBy,
		&s.ShippedAt,
		&s.DeliveryMethod,
		&s.ReceiptCondition,
		&s.ReceiptNotes,
		&s.StorageCondition,
		&s.RiskLevel,
		&s.ClientSignature,
		&s.PlatformVersion,
		&s.State,
		&s.Accepted,
		&s.AcceptedAt,
		&s.AcceptedBy,
		&s.RegisteredAt,
		&s.ReceivedAt,
		&s.UpdatedAt,
	)
}

func (s *SampleStore) Create(ctx context.Context, smp *models.Sample) error {
	query := `
		INSERT INTO samples (code, client_id, received_by, type, matrix, description,
			quantity, unit, lot, sampled_at, sampled_by, shipped_at, delivery_method,
			receipt_condition, receipt_notes, storage_condition, risk_level,
			client_signature, platform_version, state, accepted, registered_at,
			received_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, now())
		RETURNING ` + sampleColumns

	err := scanSample(s.db.QueryRow(ctx, query,
		smp.Code, smp.ClientID, smp.ReceivedBy, smp.Type, smp.Matrix, smp.Description,
		smp.Quantity, smp.Unit, smp.Lot, smp.SampledAt, smp.SampledBy, smp.ShippedAt,
		smp.DeliveryMethod, smp.ReceiptCondition, smp.ReceiptNotes, smp.StorageCondition,
		smp.RiskLevel, smp.ClientSignature, smp.PlatformVersion, smp.State, smp.Accepted,
		smp.RegisteredAt, smp.ReceivedAt,
	), smp)
	if err != nil {
		return translate("insert sample", err)
	}
	return nil
}

func (s *SampleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	return s.get(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = $1`, id)
}

// GetByIDForUpdate takes a row-level lock. A second transaction calling it
// for the same sample blocks until the first commits, then reads the
// committed row.
func (s *SampleStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	return s.get(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = $1 FOR UPDATE`, id)
}

func (s *SampleStore) get(ctx context.Context, query string, id uuid.UUID) (*models.Sample, error) {
	var smp models.Sample
	if err := scanSample(s.db.QueryRow(ctx, query, id), &smp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sample: %w", err)
	}
	return &smp, nil
}

func (s *SampleStore) Update(ctx context.Context, smp *models.Sample) error {
	query := `
		UPDATE samples
		SET state = $2, accepted = $3, accepted_at = $4, accepted_by = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.QueryRow(ctx, query,
		smp.ID, smp.State, smp.Accepted, smp.AcceptedAt, smp.AcceptedBy,
	).Scan(&smp.UpdatedAt)
	if err != nil {
		return translate("update sample", err)
	}
	return nil
}

func (s *SampleStore) List(ctx context.Context, filter repository.SampleFilter) ([]models.Sample, error) {
	var w where
	if filter.State != "" {
		w.add("state = $%d", filter.State)
	}
	if filter.ClientID != nil {
		w.add("client_id = $%d", *filter.ClientID)
	}
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.Accepted != nil {
		w.add("accepted = $%d", *filter.Accepted)
	}
	if filter.RegisteredFrom != nil {
		w.add("registered_at >= $%d", *filter.RegisteredFrom)
	}
	if filter.RegisteredTo != nil {
		w.add("registered_at <= $%d", *filter.RegisteredTo)
	}
	if filter.Code != "" {
		w.add("code ILIKE '%%' || $%d || '%%'", filter.Code)
	}

	query := `SELECT ` + sampleColumns + ` FROM samples ` + w.sql() +
		` ORDER BY registered_at DESC, id`

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	samples := make([]models.Sample, 0)
	for rows.Next() {
		var smp models.Sample
		if err := scanSample(rows, &smp); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}
