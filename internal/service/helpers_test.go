package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedNow is the clock every service test runs at.
var fixedNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  repository.Store
	actor  uuid.UUID
	client *models.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore())
}

func newFixtureWithStore(t *testing.T, store repository.Store) *fixture {
	t.Helper()
	ctx := context.Background()

	svc := New(store, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))

	actor := &models.User{Username: "reception1", PasswordHash: "x", Role: models.RoleReception}
	require.NoError(t, store.Users().Create(ctx, actor))

	client, err := svc.CreateClient(ctx, CreateClientRequest{
		CompanyName: "Aguas del Valle S.A.",
		TaxID:       "900123456-7",
		Address:     "Cra 7 # 12-34",
		City:        "Cali",
		ContactName: "Marta Ruiz",
		Email:       "lab@aguasdelvalle.co",
		Phone:       "+57 2 555 0101",
	})
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, actor: actor.ID, client: client}
}

func (f *fixture) sampleRequest() CreateSampleRequest {
	return CreateSampleRequest{
		ClientID:         f.client.ID,
		Type:             models.SampleWater,
		Matrix:           "drinking water",
		Description:      "tap outlet, plant 2",
		Quantity:         decimal.RequireFromString("200.00"),
		SampledAt:        fixedNow.Add(-26 * time.Hour),
		SampledBy:        "J. Perez",
		ShippedAt:        fixedNow.Add(-20 * time.Hour),
		DeliveryMethod:   models.DeliveryCourier,
		StorageCondition: models.StorageRefrigerated,
	}
}

func (f *fixture) createSample(t *testing.T) *models.Sample {
	t.Helper()
	smp, err := f.svc.CreateSample(context.Background(), f.sampleRequest(), f.actor)
	require.NoError(t, err)
	return smp
}

var errHistoryDown = errors.New("history table unavailable")

// failingHistoryStore wraps a store so that history appends inside a
// transaction fail.
type failingHistoryStore struct {
	repository.Store
}

func (s failingHistoryStore) WithinTx(ctx context.Context, fn func(tx repository.Repos) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Repos) error {
		return fn(failingHistoryRepos{tx})
	})
}

type failingHistoryRepos struct {
	repository.Repos
}

func (r failingHistoryRepos) History() repository.HistoryRepository {
	return failingHistory{r.Repos.History()}
}

type failingHistory struct {
	repository.HistoryRepository
}

func (failingHistory) Append(context.Context, *models.HistoryEntry) error {
	return errHistoryDown
}
