package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/service"
	"go.uber.org/zap"
)

type AssayService interface {
	AddAssays(ctx context.Context, sampleID uuid.UUID, specs []service.AssaySpec) ([]models.Assay, error)
	ListSampleAssays(ctx context.Context, sampleID uuid.UUID) ([]models.Assay, error)
	GetAssay(ctx context.Context, id uuid.UUID) (*models.Assay, error)
	ListAssays(ctx context.Context, filter repository.AssayFilter) ([]models.Assay, error)
	AssignAnalyst(ctx context.Context, assayID, analystID uuid.UUID) (*models.Assay, error)
	RegisterAssayResults(ctx context.Context, assayID uuid.UUID, results, notes string) (*models.Assay, error)
	CancelAssay(ctx context.Context, assayID uuid.UUID) (*models.Assay, error)
}

type AssayHandler struct {
	svc    AssayService
	logger *zap.Logger
}

func NewAssayHandler(svc AssayService, logger *zap.Logger) *AssayHandler {
	return &AssayHandler{svc: svc, logger: logger}
}

type assaySpecRequest struct {
	AnalysisName string          `json:"analysis_name"`
	Method       string          `json:"method"`
	Priority     models.Priority `json:"priority"`
	// ResultsDueBy is YYYY-MM-DD; an RFC 3339 timestamp is accepted and
	// truncated to its date.
	ResultsDueBy string `json:"results_due_by"`
}

type addAssaysRequest struct {
	Assays []assaySpecRequest `json:"assays"`
}

type assignAnalystRequest struct {
	AnalystID uuid.UUID `json:"analyst_id"`
}

type resultsRequest struct {
	Results string `json:"results"`
	Notes   string `json:"notes"`
}

// Add handles POST /v1/samples/:id/assays. The batch is all-or-nothing.
func (h *AssayHandler) Add(c *gin.Context) {
	sampleID, ok := pathID(c)
	if !ok {
		return
	}
	var req addAssaysRequest
	if !bindJSON(c, &req) {
		return
	}

	specs := make([]service.AssaySpec, len(req.Assays))
	for i, a := range req.Assays {
		specs[i] = service.AssaySpec{
			AnalysisName: a.AnalysisName,
			Method:       a.Method,
			Priority:     a.Priority,
		}
		if a.ResultsDueBy == "" {
			continue
		}
		due, _, err := parseTimeOrDate(a.ResultsDueBy, time.UTC)
		if err != nil {
			specs[i].UnparsedDueBy = a.ResultsDueBy
			continue
		}
		specs[i].ResultsDueBy = &due
	}

	assays, err := h.svc.AddAssays(c.Request.Context(), sampleID, specs)
	if err != nil {
		writeError(c, h.logger, "add assays", err)
		return
	}
	c.JSON(http.StatusCreated, assays)
}

// ListForSample handles GET /v1/samples/:id/assays
func (h *AssayHandler) ListForSample(c *gin.Context) {
	sampleID, ok := pathID(c)
	if !ok {
		return
	}

	assays, err := h.svc.ListSampleAssays(c.Request.Context(), sampleID)
	if err != nil {
		writeError(c, h.logger, "list sample assays", err)
		return
	}
	c.JSON(http.StatusOK, assays)
}

// List handles GET /v1/assays?status=&priority=&sample_id=&analyst_id=
func (h *AssayHandler) List(c *gin.Context) {
	sampleID, ok := queryUUID(c, "sample_id")
	if !ok {
		return
	}
	analystID, ok := queryUUID(c, "analyst_id")
	if !ok {
		return
	}

	assays, err := h.svc.ListAssays(c.Request.Context(), repository.AssayFilter{
		SampleID:  sampleID,
		Status:    models.AssayStatus(c.Query("status")),
		Priority:  models.Priority(c.Query("priority")),
		AnalystID: analystID,
	})
	if err != nil {
		writeError(c, h.logger, "list assays", err)
		return
	}
	c.JSON(http.StatusOK, assays)
}

// Get handles GET /v1/assays/:id
func (h *AssayHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	a, err := h.svc.GetAssay(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get assay", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AssignAnalyst handles POST /v1/assays/:id/analyst
func (h *AssayHandler) AssignAnalyst(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req assignAnalystRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.AnalystID == uuid.Nil {
		badRequest(c, "MISSING_FIELD", "analyst_id", `field "analyst_id" is required`)
		return
	}

	a, err := h.svc.AssignAnalyst(c.Request.Context(), id, req.AnalystID)
	if err != nil {
		writeError(c, h.logger, "assign analyst", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// RegisterResults handles POST /v1/assays/:id/results
func (h *AssayHandler) RegisterResults(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req resultsRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.RegisterAssayResults(c.Request.Context(), id, req.Results, req.Notes)
	if err != nil {
		writeError(c, h.logger, "register assay results", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Cancel handles POST /v1/assays/:id/cancel
func (h *AssayHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	a, err := h.svc.CancelAssay(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "cancel assay", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

