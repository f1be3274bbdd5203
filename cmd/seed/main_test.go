package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directoryhub/backend/internal/logging"
	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepository()

	require.NoError(t, seed(ctx, store, "localhost", logging.NewNop()))
	require.NoError(t, seed(ctx, store, "localhost", logging.NewNop()))

	tenant, err := store.GetTenantByDomain(ctx, "localhost")
	require.NoError(t, err)
	ctx = tenancy.WithTenant(ctx, tenant.ID)

	dirs, err := store.ListDirectories(ctx)
	require.NoError(t, err)
	assert.Len(t, dirs, len(seedDirectories))

	pending, err := store.ListListings(ctx, repository.ListingFilter{Status: models.ListingStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Heart Coffee", pending[0].Title)
}
