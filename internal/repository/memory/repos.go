package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type clientRepo struct{ v view }

func (r clientRepo) Create(_ context.Context, c *models.Client) error {
	return r.v.with(func(d *data) error {
		for _, existing := range d.clients {
			if existing.TaxID == c.TaxID {
				return fmt.Errorf("insert client: %w", repository.ErrConflict)
			}
		}
		now := time.Now()
		c.ID = uuid.New()
		c.CreatedAt = now
		c.UpdatedAt = now
		d.clients[c.ID] = *c
		return nil
	})
}

func (r clientRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	var out *models.Client
	err := r.v.with(func(d *data) error {
		if c, ok := d.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r clientRepo) Update(_ context.Context, c *models.Client) error {
	return r.v.with(func(d *data) error {
		if _, ok := d.clients[c.ID]; !ok {
			return fmt.Errorf("update client %s: not found", c.ID)
		}
		for id, existing := range d.clients {
			if id != c.ID && existing.TaxID == c.TaxID {
				return fmt.Errorf("update client: %w", repository.ErrConflict)
			}
		}
		c.UpdatedAt = time.Now()
		d.clients[c.ID] = *c
		return nil
	})
}

func (r clientRepo) List(_ context.Context, f repository.ClientFilter) ([]models.Client, error) {
	out := make([]models.Client, 0)
	err := r.v.with(func(d *data) error {
		for _, c := range d.clients {
			if f.Active != nil && c.Active != *f.Active {
				continue
			}
			if f.Kind != "" && c.Kind != f.Kind {
				continue
			}
			if f.Search != "" && !containsFold(c.CompanyName, f.Search) && !containsFold(c.TaxID, f.Search) {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, err
}

func (r clientRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.with(func(d *data) error {
		for _, s := range d.samples {
			if s.ClientID == id {
				return fmt.Errorf("delete client: %w", repository.ErrReferenced)
			}
		}
		delete(d.clients, id)
		return nil
	})
}

type sampleRepo struct{ v view }

func (r sampleRepo) Create(_ context.Context, s *models.Sample) error {
	return r.v.with(func(d *data) error {
		for _, existing := range d.samples {
			if existing.Code == s.Code {
				return fmt.Errorf("insert sample: %w", repository.ErrConflict)
			}
		}
		if _, ok := d.clients[s.ClientID]; !ok {
			return fmt.Errorf("insert sample: %w", repository.ErrReferenced)
		}
		s.ID = uuid.New()
		s.UpdatedAt = time.Now()
		d.samples[s.ID] = *s
		return nil
	})
}

func (r sampleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Sample, error) {
	var out *models.Sample
	err := r.v.with(func(d *data) error {
		if s, ok := d.samples[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: a transaction already holds the
// store lock.
func (r sampleRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	return r.GetByID(ctx, id)
}

func (r sampleRepo) Update(_ context.Context, s *models.Sample) error {
	return r.v.with(func(d *data) error {
		stored, ok := d.samples[s.ID]
		if !ok {
			return fmt.Errorf("update sample %s: not found", s.ID)
		}
		stored.State = s.State
		stored.Accepted = s.Accepted
		stored.AcceptedAt = s.AcceptedAt
		stored.AcceptedBy = s.AcceptedBy
		stored.UpdatedAt = time.Now()
		s.UpdatedAt = stored.UpdatedAt
		d.samples[s.ID] = stored
		return nil
	})
}

func (r sampleRepo) List(_ context.Context, f repository.SampleFilter) ([]models.Sample, error) {
	out := make([]models.Sample, 0)
	err := r.v.with(func(d *data) error {
		for _, s := range d.samples {
			if f.State != "" && s.State != f.State {
				continue
			}
			if f.ClientID != nil && s.ClientID != *f.ClientID {
				continue
			}
			if f.Type != "" && s.Type != f.Type {
				continue
			}
			if f.Accepted != nil && s.Accepted != *f.Accepted {
				continue
			}
			if f.RegisteredFrom != nil && s.RegisteredAt.Before(*f.RegisteredFrom) {
				continue
			}
			if f.RegisteredTo != nil && s.RegisteredAt.After(*f.RegisteredTo) {
				continue
			}
			if f.Code != "" && !containsFold(s.Code, f.Code) {
				continue
			}
			out = append(out, s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.After(out[j].RegisteredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

type assayRepo struct{ v view }

func (r assayRepo) Create(_ context.Context, a *models.Assay) error {
	return r.v.with(func(d *data) error {
		if _, ok := d.samples[a.SampleID]; !ok {
			return fmt.Errorf("insert assay: %w", repository.ErrReferenced)
		}
		now := time.Now()
		a.ID = uuid.New()
		a.CreatedAt = now
		a.UpdatedAt = now
		d.assays[a.ID] = *a
		return nil
	})
}

func (r assayRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Assay, error) {
	var out *models.Assay
	err := r.v.with(func(d *data) error {
		if a, ok := d.assays[id]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r assayRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assay, error) {
	return r.GetByID(ctx, id)
}

func (r assayRepo) Update(_ context.Context, a *models.Assay) error {
	return r.v.with(func(d *data) error {
		stored, ok := d.assays[a.ID]
		if !ok {
			return fmt.Errorf("update assay %s: not found", a.ID)
		}
		stored.Status = a.Status
		stored.AnalystID = a.AnalystID
		stored.StartedAt = a.StartedAt
		stored.FinishedAt = a.FinishedAt
		stored.Results = a.Results
		stored.Notes = a.Notes
		stored.UpdatedAt = time.Now()
		a.UpdatedAt = stored.UpdatedAt
		d.assays[a.ID] = stored
		return nil
	})
}

func (r assayRepo) List(_ context.Context, f repository.AssayFilter) ([]models.Assay, error) {
	out := make([]models.Assay, 0)
	err := r.v.with(func(d *data) error {
		for _, a := range d.assays {
			if f.SampleID != nil && a.SampleID != *f.SampleID {
				continue
			}
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			if f.Priority != "" && a.Priority != f.Priority {
				continue
			}
			if f.AnalystID != nil && (a.AnalystID == nil || *a.AnalystID != *f.AnalystID) {
				continue
			}
			out = append(out, a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank(); ri != rj {
			return ri > rj
		}
		if !out[i].ResultsDueBy.Equal(out[j].ResultsDueBy) {
			return out[i].ResultsDueBy.Before(out[j].ResultsDueBy)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

type historyRepo struct{ v view }

func (r historyRepo) Append(_ context.Context, e *models.HistoryEntry) error {
	return r.v.with(func(d *data) error {
		if _, ok := d.samples[e.SampleID]; !ok {
			return fmt.Errorf("append history: %w", repository.ErrReferenced)
		}
		d.lastID++
		e.ID = d.lastID
		d.history = append(d.history, *e)
		return nil
	})
}

func (r historyRepo) ListBySample(_ context.Context, sampleID uuid.UUID) ([]models.HistoryEntry, error) {
	out := make([]models.HistoryEntry, 0)
	err := r.v.with(func(d *data) error {
		for _, e := range d.history {
			if e.SampleID == sampleID {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ChangedAt.After(out[j].ChangedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

type userRepo struct{ v view }

func (r userRepo) Create(_ context.Context, u *models.User) error {
	return r.v.with(func(d *data) error {
		for _, existing := range d.users {
			if existing.Username == u.Username {
				return fmt.Errorf("insert user: %w", repository.ErrConflict)
			}
		}
		u.ID = uuid.New()
		u.CreatedAt = time.Now()
		d.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.v.with(func(d *data) error {
		if u, ok := d.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.v.with(func(d *data) error {
		for _, u := range d.users {
			if u.Username == username {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r userRepo) List(_ context.Context, role models.Role) ([]models.User, error) {
	var out []models.User
	err := r.v.with(func(d *data) error {
		for _, u := range d.users {
			if role == "" || u.Role == role {
				out = append(out, u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}
