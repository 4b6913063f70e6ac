package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/labintake/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every store works
// the same inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is the common half of pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// repos binds one store of each kind to the same DBTX.
type repos struct {
	clients *ClientStore
	samples *SampleStore
	assays  *AssayStore
	history *HistoryStore
	users   *UserStore
}

func newRepos(db DBTX) repos {
	return repos{
		clients: NewClientStore(db),
		samples: NewSampleStore(db),
		assays:  NewAssayStore(db),
		history: NewHistoryStore(db),
		users:   NewUserStore(db),
	}
}

func (r repos) Clients() repository.ClientRepository  { return r.clients }
func (r repos) Samples() repository.SampleRepository  { return r.samples }
func (r repos) Assays() repository.AssayRepository    { return r.assays }
func (r repos) History() repository.HistoryRepository { return r.history }
func (r repos) Users() repository.UserRepository      { return r.users }

// Store is the Postgres implementation of repository.Store.
type Store struct {
	repos
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{repos: newRepos(pool), pool: pool}
}

// WithinTx runs fn in a READ COMMITTED transaction. Callers that
// read-modify-write a sample take the row lock with GetByIDForUpdate, which
// is what serializes concurrent transitions of the same sample.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repos) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// translate maps constraint violations onto the repository sentinels and
// wraps everything else with op.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		case pgerrcode.ForeignKeyViolation, pgerrcode.RestrictViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrReferenced)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// where accumulates "col = $n" conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

// add appends a condition. The format string must contain exactly one %d,
// which is replaced by the next placeholder number.
func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	out := "WHERE " + w.conds[0]
	for _, c := range w.conds[1:] {
		out += " AND " + c
	}
	return out
}
