package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultUnit            = "mL"
	defaultPlatformVersion = "1.0"
	defaultAcceptNote      = "formally accepted"
)

var sampleTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "labintake_sample_transitions_total",
		Help: "Committed sample state transitions",
	},
	[]string{"from", "to"},
)

// CreateSampleRequest is the intake form. Zero-valued optional fields take
// their defaults: Unit "mL", ReceiptCondition OPTIMAL, RiskLevel NONE.
type CreateSampleRequest struct {
	ClientID         uuid.UUID
	Type             models.SampleType
	Matrix           string
	Description      string
	Quantity         decimal.Decimal
	Unit             string
	Lot              string
	SampledAt        time.Time
	SampledBy        string
	ShippedAt        time.Time
	DeliveryMethod   models.DeliveryMethod
	ReceiptCondition models.ReceiptCondition
	ReceiptNotes     string
	StorageCondition models.StorageCondition
	RiskLevel        models.RiskLevel
	ClientSignature  string
}

func (r *CreateSampleRequest) validate(now time.Time) error {
	if r.ClientID == uuid.Nil {
		return missingField(0, "client_id")
	}
	if r.Type == "" {
		return missingField(0, "type")
	}
	if err := requireFields(
		[2]string{"matrix", r.Matrix},
		[2]string{"description", r.Description},
		[2]string{"sampled_by", r.SampledBy},
	); err != nil {
		return err
	}
	if r.SampledAt.IsZero() {
		return missingField(0, "sampled_at")
	}
	if r.ShippedAt.IsZero() {
		return missingField(0, "shipped_at")
	}
	if r.DeliveryMethod == "" {
		return missingField(0, "delivery_method")
	}
	if r.StorageCondition == "" {
		return missingField(0, "storage_condition")
	}

	if r.Unit == "" {
		r.Unit = defaultUnit
	}
	if r.ReceiptCondition == "" {
		r.ReceiptCondition = models.ReceiptOptimal
	}
	if r.RiskLevel == "" {
		r.RiskLevel = models.RiskNone
	}

	switch {
	case !r.Type.Valid():
		return invalidValue("type", string(r.Type))
	case !r.DeliveryMethod.Valid():
		return invalidValue("delivery_method", string(r.DeliveryMethod))
	case !r.ReceiptCondition.Valid():
		return invalidValue("receipt_condition", string(r.ReceiptCondition))
	case !r.StorageCondition.Valid():
		return invalidValue("storage_condition", string(r.StorageCondition))
	case !r.RiskLevel.Valid():
		return invalidValue("risk_level", string(r.RiskLevel))
	}

	if err := ValidateQuantity(r.Quantity); err != nil {
		return err
	}
	return ValidateSampleDates(r.SampledAt, r.ShippedAt, now)
}

// CreateSample registers a sample for an active client. The sample starts
// REGISTERED and unaccepted; registration writes no history entry.
func (s *Service) CreateSample(ctx context.Context, req CreateSampleRequest, actor uuid.UUID) (*models.Sample, error) {
	now := s.now()
	if err := req.validate(now); err != nil {
		return nil, err
	}

	smp := &models.Sample{
		ClientID:         req.ClientID,
		ReceivedBy:       actor,
		Type:             req.Type,
		Matrix:           req.Matrix,
		Description:      req.Description,
		Quantity:         req.Quantity.Round(2),
		Unit:             req.Unit,
		Lot:              req.Lot,
		SampledAt:        req.SampledAt,
		SampledBy:        req.SampledBy,
		ShippedAt:        req.ShippedAt,
		DeliveryMethod:   req.DeliveryMethod,
		ReceiptCondition: req.ReceiptCondition,
		ReceiptNotes:     req.ReceiptNotes,
		StorageCondition: req.StorageCondition,
		RiskLevel:        req.RiskLevel,
		ClientSignature:  req.ClientSignature,
		PlatformVersion:  defaultPlatformVersion,
		State:            models.StateRegistered,
		RegisteredAt:     now,
		ReceivedAt:       now,
	}

	// A code collision aborts the Postgres transaction, so every attempt
	// gets its own unit of work.
	var err error
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		smp.Code = newSampleCode(now, s.loc)
		err = s.store.WithinTx(ctx, func(tx repository.Repos) error {
			client, err := tx.Clients().GetByID(ctx, req.ClientID)
			if err != nil {
				return err
			}
			if client == nil {
				return notFound("client", req.ClientID)
			}
			if err := ValidateClientEligible(client); err != nil {
				return err
			}
			return tx.Samples().Create(ctx, smp)
		})
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
		s.logger.Warn("sample code collision, retrying",
			zap.String("code", smp.Code),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("sample registered",
		zap.String("sample_id", smp.ID.String()),
		zap.String("code", smp.Code),
		zap.String("client_id", smp.ClientID.String()),
	)
	return smp, nil
}

// SampleDetail is a sample together with its assays and its history.
type SampleDetail struct {
	models.Sample
	Assays  []models.Assay        `json:"assays"`
	History []models.HistoryEntry `json:"history"`
}

func (s *Service) GetSample(ctx context.Context, id uuid.UUID) (*SampleDetail, error) {
	smp, err := s.store.Samples().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if smp == nil {
		return nil, notFound("sample", id)
	}

	assays, err := s.store.Assays().List(ctx, repository.AssayFilter{SampleID: &id})
	if err != nil {
		return nil, err
	}
	history, err := s.store.History().ListBySample(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SampleDetail{Sample: *smp, Assays: assays, History: history}, nil
}

func (s *Service) ListSamples(ctx context.Context, filter repository.SampleFilter) ([]models.Sample, error) {
	if filter.State != "" && !filter.State.Valid() {
		return nil, invalidValue("state", string(filter.State))
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalidValue("type", string(filter.Type))
	}
	if filter.RegisteredFrom != nil && filter.RegisteredTo != nil && filter.RegisteredTo.Before(*filter.RegisteredFrom) {
		return nil, fieldErr(ErrInvalidValue, "to").with(func(e *Error) {
			e.Message = "to must not be before from"
		})
	}
	return s.store.Samples().List(ctx, filter)
}

// Transition is the result of a committed state change: the sample as
// written and the history entry recorded with it.
type Transition struct {
	Sample *models.Sample       `json:"sample"`
	Entry  *models.HistoryEntry `json:"history_entry"`
}

// AcceptSample formally accepts a sample: it sets the acceptance fields,
// moves the state to ACCEPTED and records the transition. A sample is
// accepted at most once.
func (s *Service) AcceptSample(ctx context.Context, id, actor uuid.UUID, notes string) (*Transition, error) {
	if strings.TrimSpace(notes) == "" {
		notes = defaultAcceptNote
	}

	var out *Transition
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		smp, err := tx.Samples().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if smp == nil {
			return notFound("sample", id)
		}
		if smp.Accepted {
			return ErrAlreadyAccepted
		}

		now := s.now()
		from := smp.State
		smp.Accepted = true
		smp.AcceptedAt = &now
		smp.AcceptedBy = &actor
		smp.State = models.StateAccepted

		out, err = s.applyTransition(ctx, tx, smp, from, actor, notes, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(out)
	return out, nil
}

// TransitionSampleState moves a sample to target. Any listed state is
// reachable from any other except ACCEPTED, which only AcceptSample sets.
func (s *Service) TransitionSampleState(ctx context.Context, id uuid.UUID, target models.SampleState, actor uuid.UUID, notes string) (*Transition, error) {
	if !target.Valid() {
		return nil, invalidValue("state", string(target))
	}
	if target == models.StateAccepted {
		return nil, ErrUseAcceptEndpoint
	}

	var out *Transition
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		smp, err := tx.Samples().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if smp == nil {
			return notFound("sample", id)
		}

		from := smp.State
		smp.State = target
		out, err = s.applyTransition(ctx, tx, smp, from, actor, notes, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(out)
	return out, nil
}

// applyTransition writes the already-mutated sample and its history entry
// through the same transaction. Either both persist or neither does.
func (s *Service) applyTransition(ctx context.Context, tx repository.Repos, smp *models.Sample,
	from models.SampleState, actor uuid.UUID, notes string, at time.Time,
) (*Transition, error) {
	if err := tx.Samples().Update(ctx, smp); err != nil {
		return nil, fmt.Errorf("update sample state: %w", err)
	}
	entry, err := appendHistory(ctx, tx, smp.ID, from, smp.State, actor, notes, at)
	if err != nil {
		return nil, err
	}
	return &Transition{Sample: smp, Entry: entry}, nil
}

func (s *Service) committed(t *Transition) {
	sampleTransitions.WithLabelValues(string(t.Entry.PreviousState), string(t.Entry.NewState)).Inc()
	s.logger.Info("sample transitioned",
		zap.String("code", t.Sample.Code),
		zap.String("from", string(t.Entry.PreviousState)),
		zap.String("to", string(t.Entry.NewState)),
		zap.String("actor_id", t.Entry.ActorID.String()),
	)
}

// CheckSufficiency reports whether the sample holds at least required units.
func (s *Service) CheckSufficiency(ctx context.Context, id uuid.UUID, required decimal.Decimal) (*Sufficiency, error) {
	if e := quantityError(required); e != nil {
		return nil, fieldErr(e, "required_quantity")
	}
	smp, err := s.store.Samples().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if smp == nil {
		return nil, notFound("sample", id)
	}
	res := CheckSufficiency(smp, required)
	return &res, nil
}
