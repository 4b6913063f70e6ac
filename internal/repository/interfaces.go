package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
)

// Store-level errors. Stores translate driver errors into these so the
// service never has to know which database is behind the interface.
var (
	// ErrConflict is returned when a unique constraint rejects a write
	// (duplicate client tax id, sample code collision, duplicate username).
	ErrConflict = errors.New("record already exists")

	// ErrReferenced is returned when a delete is blocked by a restricting
	// foreign key (a client that still has samples).
	ErrReferenced = errors.New("record is referenced by other records")
)

// Every method takes ctx first: stores do I/O, and the HTTP request's
// context must be able to cancel it.
//
// Lookups by id return nil, nil when the row does not exist. Callers turn
// that into their own not-found error.

// ClientRepository stores lab clients.
type ClientRepository interface {
	// Create inserts c, filling ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	// Update writes every mutable column of c and refreshes UpdatedAt.
	Update(ctx context.Context, c *models.Client) error
	// List returns clients ordered by company name.
	List(ctx context.Context, filter ClientFilter) ([]models.Client, error)
	// Delete removes a client. Returns ErrReferenced while samples point at it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// SampleRepository stores samples.
type SampleRepository interface {
	// Create inserts s, filling ID and UpdatedAt. Returns ErrConflict on a
	// duplicate code.
	Create(ctx context.Context, s *models.Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sample, error)
	// GetByIDForUpdate reads the sample and holds it locked until the
	// surrounding transaction ends. Only meaningful inside WithinTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Sample, error)
	// Update writes the state and acceptance columns of s. Code, client and
	// intake attributes are never rewritten.
	Update(ctx context.Context, s *models.Sample) error
	// List returns samples newest first.
	List(ctx context.Context, filter SampleFilter) ([]models.Sample, error)
}

// AssayRepository stores the assays attached to samples.
type AssayRepository interface {
	Create(ctx context.Context, a *models.Assay) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assay, error)
	// GetByIDForUpdate reads the assay and holds it locked until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assay, error)
	// Update writes the execution columns (status, analyst, timestamps,
	// results, notes).
	Update(ctx context.Context, a *models.Assay) error
	// List returns assays ordered by priority (URGENT first), then due date.
	List(ctx context.Context, filter AssayFilter) ([]models.Assay, error)
}

// HistoryRepository is the sample state ledger. There is no
// update or delete method: rows are append-only.
type HistoryRepository interface {
	// Append inserts e, filling ID. ChangedAt is stamped by the caller so it
	// matches the timestamps of the transition it records.
	Append(ctx context.Context, e *models.HistoryEntry) error
	// ListBySample returns the sample's entries newest first.
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.HistoryEntry, error)
}

// UserRepository reads lab staff accounts.
type UserRepository interface {
	// Create inserts u, filling ID and CreatedAt. Returns ErrConflict on a
	// duplicate username.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// List returns users ordered by username. An empty role lists everyone.
	List(ctx context.Context, role models.Role) ([]models.User, error)
}

// Repos is the set of repositories bound to one connection or one
// transaction.
type Repos interface {
	Clients() ClientRepository
	Samples() SampleRepository
	Assays() AssayRepository
	History() HistoryRepository
	Users() UserRepository
}

// Store is the entity store the service depends on.
//
// Outside a transaction the repositories auto-commit each call. WithinTx
// runs fn against repositories bound to a single transaction: if fn returns
// an error nothing it wrote is kept, otherwise everything is committed
// together.
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
	Ping(ctx context.Context) error
}

// ClientFilter narrows ListClients. Zero values mean "no filter".
type ClientFilter struct {
	Active *bool
	Kind   models.ClientKind
	// Search matches company name or tax id, case-insensitively.
	Search string
}

// SampleFilter narrows ListSamples. Zero values mean "no filter".
type SampleFilter struct {
	State    models.SampleState
	ClientID *uuid.UUID
	Type     models.SampleType
	Accepted *bool
	// RegisteredFrom and RegisteredTo bound registered_at, inclusive.
	RegisteredFrom *time.Time
	RegisteredTo   *time.Time
	// Code matches a case-insensitive substring of the sample code.
	Code string
}

// AssayFilter narrows ListAssays. Zero values mean "no filter".
type AssayFilter struct {
	SampleID  *uuid.UUID
	Status    models.AssayStatus
	Priority  models.Priority
	AnalystID *uuid.UUID
}
