package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
)

// HistoryStore writes the sample_history ledger. It only ever INSERTs and
// SELECTs; the table has no UPDATE or DELETE path in this codebase.
type HistoryStore struct {
	db DBTX
}

func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(ctx context.Context, e *models.HistoryEntry) error {
	// bigserial id, like the other append-heavy tables. RETURNING gives it back.
	query := `
		INSERT INTO sample_history (sample_id, previous_state, new_state, actor_id, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.db.QueryRow(ctx, query,
		e.SampleID, e.PreviousState, e.NewState, e.ActorID, e.ChangedAt, e.Notes,
	).Scan(&e.ID)
	if err != nil {
		return translate("append history", err)
	}
	return nil
}

func (s *HistoryStore) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.HistoryEntry, error) {
	// id breaks ties between entries stamped with the same changed_at.
	query := `
		SELECT id, sample_id, previous_state, new_state, actor_id, changed_at, notes
		FROM sample_history
		WHERE sample_id = $1
		ORDER BY changed_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, sampleID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(
			&e.ID,
			&e.SampleID,
			&e.PreviousState,
			&e.NewState,
			&e.ActorID,
			&e.ChangedAt,
			&e.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
