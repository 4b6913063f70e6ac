package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"go.uber.org/zap"
)

// AssaySpec describes one analysis to run on a sample. ResultsDueBy is a
// calendar date; only its year, month and day are kept. UnparsedDueBy holds
// a due date the caller could not parse, so that it is reported in batch
// order with the other validation failures.
type AssaySpec struct {
	AnalysisName  string
	Method        string
	Priority      models.Priority
	ResultsDueBy  *time.Time
	UnparsedDueBy string
}

// validate checks spec i (1-based) of a batch and fills its defaults.
func (a *AssaySpec) validate(i int, today time.Time) error {
	if strings.TrimSpace(a.AnalysisName) == "" {
		return missingField(i, "analysis_name")
	}
	if a.UnparsedDueBy != "" {
		return invalidValue("results_due_by", a.UnparsedDueBy).with(func(e *Error) { e.Index = i })
	}
	if a.ResultsDueBy == nil || a.ResultsDueBy.IsZero() {
		return missingField(i, "results_due_by")
	}
	if a.Priority == "" {
		a.Priority = models.PriorityNormal
	}
	if !a.Priority.Valid() {
		return invalidValue("priority", string(a.Priority)).with(func(e *Error) { e.Index = i })
	}
	if dateOnly(*a.ResultsDueBy).Before(today) {
		return fieldErr(ErrPastDate, "results_due_by").with(func(e *Error) { e.Index = i })
	}
	return nil
}

// AddAssays attaches a batch of assays to a sample. The whole batch is
// validated before anything is written, and written in one unit of work:
// either every assay is created or none is.
func (s *Service) AddAssays(ctx context.Context, sampleID uuid.UUID, specs []AssaySpec) ([]models.Assay, error) {
	if len(specs) == 0 {
		return nil, missingField(0, "assays")
	}
	today := s.today()
	for i := range specs {
		if err := specs[i].validate(i+1, today); err != nil {
			return nil, err
		}
	}

	created := make([]models.Assay, 0, len(specs))
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		smp, err := tx.Samples().GetByID(ctx, sampleID)
		if err != nil {
			return err
		}
		if smp == nil {
			return notFound("sample", sampleID)
		}
		for _, spec := range specs {
			a := &models.Assay{
				SampleID:     sampleID,
				AnalysisName: strings.TrimSpace(spec.AnalysisName),
				Method:       spec.Method,
				Priority:     spec.Priority,
				ResultsDueBy: dateOnly(*spec.ResultsDueBy),
				Status:       models.AssayPending,
			}
			if err := tx.Assays().Create(ctx, a); err != nil {
				return err
			}
			created = append(created, *a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("assays added",
		zap.String("sample_id", sampleID.String()),
		zap.Int("count", len(created)),
	)
	return created, nil
}

func (s *Service) ListSampleAssays(ctx context.Context, sampleID uuid.UUID) ([]models.Assay, error) {
	smp, err := s.store.Samples().GetByID(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if smp == nil {
		return nil, notFound("sample", sampleID)
	}
	return s.store.Assays().List(ctx, repository.AssayFilter{SampleID: &sampleID})
}

func (s *Service) GetAssay(ctx context.Context, id uuid.UUID) (*models.Assay, error) {
	a, err := s.store.Assays().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("assay", id)
	}
	return a, nil
}

// ListAssays returns assays most urgent first, then by due date.
func (s *Service) ListAssays(ctx context.Context, filter repository.AssayFilter) ([]models.Assay, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidValue("status", string(filter.Status))
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, invalidValue("priority", string(filter.Priority))
	}
	return s.store.Assays().List(ctx, filter)
}

// updateAssay locks the assay, lets fn change it and writes it back in one
// unit of work.
func (s *Service) updateAssay(ctx context.Context, id uuid.UUID, fn func(tx repository.Repos, a *models.Assay) error) (*models.Assay, error) {
	var out *models.Assay
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		a, err := tx.Assays().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return notFound("assay", id)
		}
		if err := fn(tx, a); err != nil {
			return err
		}
		if err := tx.Assays().Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignAnalyst sets the assay's analyst. The status is left alone.
func (s *Service) AssignAnalyst(ctx context.Context, assayID, analystID uuid.UUID) (*models.Assay, error) {
	a, err := s.updateAssay(ctx, assayID, func(tx repository.Repos, a *models.Assay) error {
		analyst, err := tx.Users().GetByID(ctx, analystID)
		if err != nil {
			return err
		}
		if analyst == nil {
			return ErrAnalystNotFound.with(func(e *Error) { e.ID = analystID.String() })
		}
		a.AnalystID = &analyst.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("analyst assigned",
		zap.String("assay_id", a.ID.String()),
		zap.String("analyst_id", analystID.String()),
	)
	return a, nil
}

// RegisterAssayResults records the results and completes the assay. It is
// the only way an assay reaches COMPLETED, and it does not check the
// current status.
func (s *Service) RegisterAssayResults(ctx context.Context, assayID uuid.UUID, results, notes string) (*models.Assay, error) {
	if strings.TrimSpace(results) == "" {
		return nil, ErrMissingResults
	}

	a, err := s.updateAssay(ctx, assayID, func(_ repository.Repos, a *models.Assay) error {
		now := s.now()
		a.Results = results
		a.Notes = notes
		a.Status = models.AssayCompleted
		a.FinishedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("assay results registered", zap.String("assay_id", a.ID.String()))
	return a, nil
}

// CancelAssay cancels a PENDING or IN_PROGRESS assay.
func (s *Service) CancelAssay(ctx context.Context, assayID uuid.UUID) (*models.Assay, error) {
	a, err := s.updateAssay(ctx, assayID, func(_ repository.Repos, a *models.Assay) error {
		if !a.Status.Cancellable() {
			return ErrInvalidAssayTransition.with(func(e *Error) {
				e.Resource = "assay"
				e.ID = a.ID.String()
			})
		}
		a.Status = models.AssayCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("assay cancelled", zap.String("assay_id", a.ID.String()))
	return a, nil
}
