package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/middleware"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SampleService interface {
	CreateSample(ctx context.Context, req service.CreateSampleRequest, actor uuid.UUID) (*models.Sample, error)
	GetSample(ctx context.Context, id uuid.UUID) (*service.SampleDetail, error)
	ListSamples(ctx context.Context, filter repository.SampleFilter) ([]models.Sample, error)
	AcceptSample(ctx context.Context, id, actor uuid.UUID, notes string) (*service.Transition, error)
	TransitionSampleState(ctx context.Context, id uuid.UUID, target models.SampleState, actor uuid.UUID, notes string) (*service.Transition, error)
	CheckSufficiency(ctx context.Context, id uuid.UUID, required decimal.Decimal) (*service.Sufficiency, error)
	ListHistoryForSample(ctx context.Context, id uuid.UUID) ([]models.HistoryEntry, error)
}

type SampleHandler struct {
	svc    SampleService
	loc    *time.Location
	logger *zap.Logger
}

// NewSampleHandler builds the sample handlers. loc is the lab's time zone,
// in which bare from/to dates are read; nil means UTC.
func NewSampleHandler(svc SampleService, loc *time.Location, logger *zap.Logger) *SampleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SampleHandler{svc: svc, loc: loc, logger: logger}
}

type createSampleRequest struct {
	ClientID         uuid.UUID               `json:"client_id"`
	Type             models.SampleType       `json:"type"`
	Matrix           string                  `json:"matrix"`
	Description      string                  `json:"description"`
	Quantity         decimal.Decimal         `json:"quantity"`
	Unit             string                  `json:"unit"`
	Lot              string                  `json:"lot"`
	SampledAt        time.Time               `json:"sampled_at"`
	SampledBy        string                  `json:"sampled_by"`
	ShippedAt        time.Time               `json:"shipped_at"`
	DeliveryMethod   models.DeliveryMethod   `json:"delivery_method"`
	ReceiptCondition models.ReceiptCondition `json:"receipt_condition"`
	ReceiptNotes     string                  `json:"receipt_notes"`
	StorageCondition models.StorageCondition `json:"storage_condition"`
	RiskLevel        models.RiskLevel        `json:"risk_level"`
	ClientSignature  string                  `json:"client_signature"`
}

type acceptRequest struct {
	Notes string `json:"notes"`
}

type transitionRequest struct {
	State models.SampleState `json:"state"`
	Notes string             `json:"notes"`
}

type sufficiencyRequest struct {
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
}

// Create handles POST /v1/samples. The authenticated user is recorded as
// the receiver.
func (h *SampleHandler) Create(c *gin.Context) {
	var req createSampleRequest
	if !bindJSON(c, &req) {
		return
	}

	smp, err := h.svc.CreateSample(c.Request.Context(), service.CreateSampleRequest(req), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, "create sample", err)
		return
	}
	c.JSON(http.StatusCreated, smp)
}

// List handles GET /v1/samples?state=&client_id=&type=&accepted=&from=&to=&code=
func (h *SampleHandler) List(c *gin.Context) {
	clientID, ok := queryUUID(c, "client_id")
	if !ok {
		return
	}
	h.list(c, clientID)
}

// ListForClient handles GET /v1/clients/:id/samples with the same filters
// as List.
func (h *SampleHandler) ListForClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.list(c, &id)
}

func (h *SampleHandler) list(c *gin.Context, clientID *uuid.UUID) {
	accepted, ok := queryBool(c, "accepted")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from", false, h.loc)
	if !ok {
		return
	}
	to, ok := queryTime(c, "to", true, h.loc)
	if !ok {
		return
	}

	samples, err := h.svc.ListSamples(c.Request.Context(), repository.SampleFilter{
		State:          models.SampleState(c.Query("state")),
		ClientID:       clientID,
		Type:           models.SampleType(c.Query("type")),
		Accepted:       accepted,
		RegisteredFrom: from,
		RegisteredTo:   to,
		Code:           c.Query("code"),
	})
	if err != nil {
		writeError(c, h.logger, "list samples", err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

// Get handles GET /v1/samples/:id
func (h *SampleHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.svc.GetSample(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get sample", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Accept handles POST /v1/samples/:id/accept. The body is optional.
func (h *SampleHandler) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "INVALID_BODY", "", "invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.AcceptSample(c.Request.Context(), id, middleware.GetUserID(c), req.Notes)
	if err != nil {
		writeError(c, h.logger, "accept sample", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Transition handles POST /v1/samples/:id/state
func (h *SampleHandler) Transition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.svc.TransitionSampleState(c.Request.Context(), id, req.State, middleware.GetUserID(c), req.Notes)
	if err != nil {
		writeError(c, h.logger, "transition sample", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Sufficiency handles POST /v1/samples/:id/sufficiency. Nothing is written.
func (h *SampleHandler) Sufficiency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req sufficiencyRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.CheckSufficiency(c.Request.Context(), id, req.RequiredQuantity)
	if err != nil {
		writeError(c, h.logger, "check sufficiency", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// History handles GET /v1/samples/:id/history
func (h *SampleHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.svc.ListHistoryForSample(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "list sample history", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
