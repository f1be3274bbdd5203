package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

func newTestServices(t *testing.T) (context.Context, *DirectoryService, *ListingService) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	tenant := &models.Tenant{Name: "acme", Domain: "acme.com"}
	require.NoError(t, repo.CreateTenant(context.Background(), tenant))
	ctx := tenancy.WithTenant(context.Background(), tenant.ID)
	return ctx, NewDirectoryService(repo, nil), NewListingService(repo, repo, nil)
}

func TestDirectoryService_Create(t *testing.T) {
	ctx, dirs, _ := newTestServices(t)

	d, err := dirs.Create(ctx, CreateDirectoryInput{
		Name:   " Coffee Shops ",
		Schema: json.RawMessage(`{"fields":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "coffee-shops", d.Slug)
	assert.Equal(t, models.DirectoryStatusActive, d.Status)

	_, err = dirs.Create(ctx, CreateDirectoryInput{Name: "coffee shops", Schema: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrValidation, "duplicate slug")

	for _, in := range []CreateDirectoryInput{
		{Name: "", Schema: json.RawMessage(`{}`)},
		{Name: "???", Schema: json.RawMessage(`{}`)},
		{Name: "Bad schema", Schema: json.RawMessage(`[1]`)},
		{Name: "No schema"},
	} {
		_, err := dirs.Create(ctx, in)
		assert.ErrorIs(t, err, ErrValidation, in.Name)
	}

	all, err := dirs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListingService_SubmitAndReview(t *testing.T) {
	ctx, dirs, listings := newTestServices(t)

	d, err := dirs.Create(ctx, CreateDirectoryInput{
		Name:   "Vets",
		Schema: json.RawMessage(`{"fields":[{"name":"name","required":true},{"name":"address","required":true},{"name":"phone"}]}`),
	})
	require.NoError(t, err)

	_, err = listings.Submit(ctx, SubmitListingInput{DirectoryID: d.ID, Title: "Happy Paws"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "address")

	_, err = listings.Submit(ctx, SubmitListingInput{DirectoryID: d.ID, Title: " "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = listings.Submit(ctx, SubmitListingInput{DirectoryID: "missing", Title: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	input := map[string]interface{}{"address": "1 Bark Ave"}
	l, err := listings.Submit(ctx, SubmitListingInput{
		DirectoryID: d.ID,
		Title:       "Happy Paws",
		Data:        input,
		SubmittedBy: "contrib@acme.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusPending, l.Status)
	assert.Equal(t, "Happy Paws", l.Data["name"], "title fills the name field")
	assert.NotContains(t, input, "name", "caller's map is not modified")

	pending, err := listings.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := listings.Approve(ctx, l.ID, "admin@acme.com", " looks good ")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewNote)
	assert.Equal(t, "looks good", *approved.ReviewNote)
	assert.NotNil(t, approved.ReviewedAt)

	_, err = listings.Reject(ctx, l.ID, "admin@acme.com", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	pending, err = listings.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	byDir, err := listings.ListForDirectory(ctx, d.ID, models.ListingStatusApproved)
	require.NoError(t, err)
	assert.Len(t, byDir, 1)

	_, err = listings.ListForDirectory(ctx, d.ID, "published")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMissingRequired(t *testing.T) {
	schema := json.RawMessage(`{"fields":[{"name":"a","required":true},{"name":"b","required":true},{"name":"c","required":true},{"name":"d"}]}`)
	missing := MissingRequired(schema, map[string]interface{}{"a": "x", "b": "  ", "c": []interface{}{}})
	assert.Equal(t, []string{"b", "c"}, missing)

	assert.Empty(t, MissingRequired(json.RawMessage(`{"type":"object"}`), nil))
	assert.Empty(t, MissingRequired(json.RawMessage(`garbage`), nil))
}
