// Package memory is an in-process repository.Store. It backs the service
// and API tests and the STORE_DRIVER=memory development mode.
//
// Transactions are serialized: WithinTx holds the store lock for its whole
// duration and works on a copy of the data that replaces the live copy only
// when fn succeeds. Calls made outside a transaction take the same lock, so
// inside fn always use the tx repositories, never the Store itself.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
)

type data struct {
	users   map[uuid.UUID]models.User
	clients map[uuid.UUID]models.Client
	samples map[uuid.UUID]models.Sample
	assays  map[uuid.UUID]models.Assay
	history []models.HistoryEntry
	lastID  int64
}

func newData() *data {
	return &data{
		users:   make(map[uuid.UUID]models.User),
		clients: make(map[uuid.UUID]models.Client),
		samples: make(map[uuid.UUID]models.Sample),
		assays:  make(map[uuid.UUID]models.Assay),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.clients {
		c.clients[k] = v
	}
	for k, v := range d.samples {
		c.samples[k] = v
	}
	for k, v := range d.assays {
		c.assays[k] = v
	}
	c.history = append([]models.HistoryEntry(nil), d.history...)
	c.lastID = d.lastID
	return c
}

// Store is the in-memory implementation of repository.Store.
type Store struct {
	mu   sync.Mutex
	data *data
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: newData()}
}

// view routes repository calls either to the live data (taking the lock per
// call) or to a transaction's private copy (lock already held).
type view struct {
	s  *Store
	tx *data
}

func (v view) with(fn func(d *data) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func (v view) Clients() repository.ClientRepository  { return clientRepo{v} }
func (v view) Samples() repository.SampleRepository  { return sampleRepo{v} }
func (v view) Assays() repository.AssayRepository    { return assayRepo{v} }
func (v view) History() repository.HistoryRepository { return historyRepo{v} }
func (v view) Users() repository.UserRepository      { return userRepo{v} }

func (s *Store) Clients() repository.ClientRepository  { return view{s: s}.Clients() }
func (s *Store) Samples() repository.SampleRepository  { return view{s: s}.Samples() }
func (s *Store) Assays() repository.AssayRepository    { return view{s: s}.Assays() }
func (s *Store) History() repository.HistoryRepository { return view{s: s}.History() }
func (s *Store) Users() repository.UserRepository      { return view{s: s}.Users() }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(view{s: s, tx: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
