package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
)

// appendHistory is the only writer of history entries. It takes the
// transaction's repositories, never the store, so an entry cannot be written
// outside the unit of work that changed the state.
func appendHistory(ctx context.Context, tx repository.Repos, sampleID uuid.UUID,
	from, to models.SampleState, actor uuid.UUID, notes string, at time.Time,
) (*models.HistoryEntry, error) {
	e := &models.HistoryEntry{
		SampleID:      sampleID,
		PreviousState: from,
		NewState:      to,
		ActorID:       actor,
		ChangedAt:     at,
		Notes:         notes,
	}
	if err := tx.History().Append(ctx, e); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return e, nil
}

// ListHistoryForSample returns the sample's transitions, newest first.
func (s *Service) ListHistoryForSample(ctx context.Context, sampleID uuid.UUID) ([]models.HistoryEntry, error) {
	smp, err := s.store.Samples().GetByID(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if smp == nil {
		return nil, notFound("sample", sampleID)
	}
	return s.store.History().ListBySample(ctx, sampleID)
}
