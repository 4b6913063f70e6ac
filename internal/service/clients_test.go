package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClientDefaults(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Colombia", f.client.Country)
	assert.Equal(t, models.ClientNew, f.client.Kind)
	assert.True(t, f.client.Active)
	assert.NotEqual(t, uuid.Nil, f.client.ID)
}

func TestCreateClientValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateClient(ctx, CreateClientRequest{CompanyName: "No tax id"})
	require.ErrorIs(t, err, ErrMissingField)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "tax_id", se.Field)

	dup := CreateClientRequest{
		CompanyName: "Copycat", TaxID: f.client.TaxID, Address: "x", City: "x",
		ContactName: "x", Email: "x@example.com", Phone: "1",
	}
	_, err = f.svc.CreateClient(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateTaxID)

	dup.TaxID = "700000000-0"
	dup.Kind = "VIP"
	_, err = f.svc.CreateClient(ctx, dup)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUpdateClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := false
	recurring := models.ClientRecurring
	city := "Palmira"
	got, err := f.svc.UpdateClient(ctx, f.client.ID, UpdateClientRequest{
		City:   &city,
		Kind:   &recurring,
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Palmira", got.City)
	assert.Equal(t, models.ClientRecurring, got.Kind)
	assert.False(t, got.Active)
	assert.Equal(t, f.client.CompanyName, got.CompanyName)

	_, err = f.svc.CreateSample(ctx, f.sampleRequest(), f.actor)
	assert.ErrorIs(t, err, ErrClientNotAuthorized, "deactivated clients cannot submit samples")

	blank := ""
	_, err = f.svc.UpdateClient(ctx, f.client.ID, UpdateClientRequest{Email: &blank})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = f.svc.UpdateClient(ctx, uuid.New(), UpdateClientRequest{City: &city})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createSample(t)
	err := f.svc.DeleteClient(ctx, f.client.ID)
	require.ErrorIs(t, err, ErrClientReferenced)
	assert.Equal(t, KindIntegrity, KindOf(err))

	spare, err := f.svc.CreateClient(ctx, CreateClientRequest{
		CompanyName: "Spare", TaxID: "600000000-0", Address: "x", City: "x",
		ContactName: "x", Email: "x@example.com", Phone: "1",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteClient(ctx, spare.ID))

	_, err = f.svc.GetClient(ctx, spare.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteClient(ctx, spare.ID), ErrNotFound)
}

func TestListClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.ListClients(ctx, repository.ClientFilter{Search: "valle"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = f.svc.ListClients(ctx, repository.ClientFilter{Search: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.svc.ListClients(ctx, repository.ClientFilter{Kind: "VIP"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}
