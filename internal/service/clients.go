package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"go.uber.org/zap"
)

const defaultCountry = "Colombia"

// CreateClientRequest carries the fields a new client may be registered
// with. Kind defaults to NEW, Country to Colombia and Active to true.
type CreateClientRequest struct {
	CompanyName string
	TaxID       string
	Address     string
	City        string
	Country     string
	ContactName string
	ContactRole string
	Email       string
	Phone       string
	Kind        models.ClientKind
	Active      *bool
}

// UpdateClientRequest is a partial update: nil fields are left unchanged.
type UpdateClientRequest struct {
	CompanyName *string
	TaxID       *string
	Address     *string
	City        *string
	Country     *string
	ContactName *string
	ContactRole *string
	Email       *string
	Phone       *string
	Kind        *models.ClientKind
	Active      *bool
}

func requireFields(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return missingField(0, f[0])
		}
	}
	return nil
}

func (s *Service) CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error) {
	if err := requireFields(
		[2]string{"company_name", req.CompanyName},
		[2]string{"tax_id", req.TaxID},
		[2]string{"address", req.Address},
		[2]string{"city", req.City},
		[2]string{"contact_name", req.ContactName},
		[2]string{"email", req.Email},
		[2]string{"phone", req.Phone},
	); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		req.Kind = models.ClientNew
	}
	if !req.Kind.Valid() {
		return nil, invalidValue("kind", string(req.Kind))
	}
	if req.Country == "" {
		req.Country = defaultCountry
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	c := &models.Client{
		CompanyName: req.CompanyName,
		TaxID:       strings.TrimSpace(req.TaxID),
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		ContactName: req.ContactName,
		ContactRole: req.ContactRole,
		Email:       req.Email,
		Phone:       req.Phone,
		Kind:        req.Kind,
		Active:      active,
	}
	if err := s.store.Clients().Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateTaxID
		}
		return nil, err
	}

	s.logger.Info("client registered",
		zap.String("client_id", c.ID.String()),
		zap.String("tax_id", c.TaxID),
	)
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := s.store.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("client", id)
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context, filter repository.ClientFilter) ([]models.Client, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, invalidValue("kind", string(filter.Kind))
	}
	return s.store.Clients().List(ctx, filter)
}

// UpdateClient applies a partial update. Required fields may be changed but
// not blanked.
func (s *Service) UpdateClient(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*models.Client, error) {
	if req.Kind != nil && !req.Kind.Valid() {
		return nil, invalidValue("kind", string(*req.Kind))
	}

	var out *models.Client
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		c, err := tx.Clients().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return notFound("client", id)
		}

		for _, f := range []struct {
			dst      *string
			src      *string
			field    string
			required bool
		}{
			{&c.CompanyName, req.CompanyName, "company_name", true},
			{&c.TaxID, req.TaxID, "tax_id", true},
			{&c.Address, req.Address, "address", true},
			{&c.City, req.City, "city", true},
			{&c.Country, req.Country, "country", true},
			{&c.ContactName, req.ContactName, "contact_name", true},
			{&c.ContactRole, req.ContactRole, "contact_role", false},
			{&c.Email, req.Email, "email", true},
			{&c.Phone, req.Phone, "phone", true},
		} {
			if f.src == nil {
				continue
			}
			if f.required && strings.TrimSpace(*f.src) == "" {
				return missingField(0, f.field)
			}
			*f.dst = *f.src
		}
		if req.Kind != nil {
			c.Kind = *req.Kind
		}
		if req.Active != nil {
			c.Active = *req.Active
		}

		if err := tx.Clients().Update(ctx, c); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateTaxID
			}
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteClient removes a client that has never submitted a sample. Clients
// with samples fail with ErrClientReferenced; deactivate them instead.
func (s *Service) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx repository.Repos) error {
		c, err := tx.Clients().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return notFound("client", id)
		}
		if err := tx.Clients().Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return ErrClientReferenced.with(func(e *Error) {
					e.Resource = "client"
					e.ID = id.String()
				})
			}
			return err
		}
		return nil
	})
}
