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

type ClientStore struct {
	db DBTX
}

func NewClientStore(db DBTX) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, company_name, tax_id, address, city, country, contact_name,
	contact_role, email, phone, kind, active, created_at, updated_at`

func scanClient(row scanner, c *models.Client) error {
	return row.Scan(
		&c.ID,
		&c.CompanyName,
		&c.TaxID,
		&c.Address,
		&c.City,
		&c.Country,
		&c.ContactName,
		&c.ContactRole,
		&c.Email,
		&c.Phone,
		&c.Kind,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (s *ClientStore) Create(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (company_name, tax_id, address, city, country, contact_name,
			contact_role, email, phone, kind, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING ` + clientColumns

	err := scanClient(s.db.QueryRow(ctx, query,
		c.CompanyName, c.TaxID, c.Address, c.City, c.Country, c.ContactName,
		c.ContactRole, c.Email, c.Phone, c.Kind, c.Active,
	), c)
	if err != nil {
		return translate("insert client", err)
	}
	return nil
}

func (s *ClientStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	var c models.Client
	if err := scanClient(s.db.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (s *ClientStore) Update(ctx context.Context, c *models.Client) error {
	query := `
		UPDATE clients
		SET company_name = $2, tax_id = $3, address = $4, city = $5, country = $6,
			contact_name = $7, contact_role = $8, email = $9, phone = $10, kind = $11,
			active = $12, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.QueryRow(ctx, query,
		c.ID, c.CompanyName, c.TaxID, c.Address, c.City, c.Country, c.ContactName,
		c.ContactRole, c.Email, c.Phone, c.Kind, c.Active,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return translate("update client", err)
	}
	return nil
}

func (s *ClientStore) List(ctx context.Context, filter repository.ClientFilter) ([]models.Client, error) {
	var w where
	if filter.Active != nil {
		w.add("active = $%d", *filter.Active)
	}
	if filter.Kind != "" {
		w.add("kind = $%d", filter.Kind)
	}
	if filter.Search != "" {
		w.add("(company_name ILIKE '%%' || $%[1]d || '%%' OR tax_id ILIKE '%%' || $%[1]d || '%%')", filter.Search)
	}

	query := `SELECT ` + clientColumns + ` FROM clients ` + w.sql() + ` ORDER BY company_name`

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (s *ClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	// samples.client_id is ON DELETE RESTRICT, so a referenced client fails
	// here with a foreign key violation that translate turns into
	// repository.ErrReferenced.
	_, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return translate("delete client", err)
	}
	return nil
}
