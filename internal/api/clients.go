package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/service"
	"go.uber.org/zap"
)

type ClientService interface {
	CreateClient(ctx context.Context, req service.CreateClientRequest) (*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context, filter repository.ClientFilter) ([]models.Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, req service.UpdateClientRequest) (*models.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

type ClientHandler struct {
	svc    ClientService
	logger *zap.Logger
}

func NewClientHandler(svc ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{svc: svc, logger: logger}
}

type createClientRequest struct {
	CompanyName string            `json:"company_name"`
	TaxID       string            `json:"tax_id"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	Country     string            `json:"country"`
	ContactName string            `json:"contact_name"`
	ContactRole string            `json:"contact_role"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Kind        models.ClientKind `json:"kind"`
	Active      *bool             `json:"active"`
}

type updateClientRequest struct {
	CompanyName *string            `json:"company_name"`
	TaxID       *string            `json:"tax_id"`
	Address     *string            `json:"address"`
	City        *string            `json:"city"`
	Country     *string            `json:"country"`
	ContactName *string            `json:"contact_name"`
	ContactRole *string            `json:"contact_role"`
	Email       *string            `json:"email"`
	Phone       *string            `json:"phone"`
	Kind        *models.ClientKind `json:"kind"`
	Active      *bool              `json:"active"`
}

// Create handles POST /v1/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.svc.CreateClient(c.Request.Context(), service.CreateClientRequest(req))
	if err != nil {
		writeError(c, h.logger, "create client", err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// List handles GET /v1/clients?active=&kind=&search=
func (h *ClientHandler) List(c *gin.Context) {
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}

	clients, err := h.svc.ListClients(c.Request.Context(), repository.ClientFilter{
		Active: active,
		Kind:   models.ClientKind(c.Query("kind")),
		Search: c.Query("search"),
	})
	if err != nil {
		writeError(c, h.logger, "list clients", err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// Get handles GET /v1/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	client, err := h.svc.GetClient(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get client", err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// Update handles PATCH /v1/clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.svc.UpdateClient(c.Request.Context(), id, service.UpdateClientRequest(req))
	if err != nil {
		writeError(c, h.logger, "update client", err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// Delete handles DELETE /v1/clients/:id
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteClient(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "delete client", err)
		return
	}
	c.Status(http.StatusNoContent)
}
