package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directoryhub/backend/pkg/models"
)

var vetDirectory = &models.Directory{
	ID:     "dir-1",
	Name:   "Vets",
	Schema: json.RawMessage(`{"fields":[{"name":"name","required":true},{"name":"phone","type":"phone"}]}`),
}

func TestListingAutofiller_MockMode(t *testing.T) {
	resp, err := NewListingAutofiller(nil, nil).Autofill(context.Background(), vetDirectory, "Happy Paws clinic")
	require.NoError(t, err)

	assert.True(t, resp.MockMode)
	assert.Equal(t, map[string]interface{}{"name": "", "phone": ""}, resp.Fields)
}

func TestListingAutofiller_KeepsOnlySchemaFields(t *testing.T) {
	model := &fakeModel{out: `{"name":"Happy Paws","phone":null,"invented":"x"}`}
	resp, err := NewListingAutofiller(model, nil).Autofill(context.Background(), vetDirectory, "Happy Paws clinic")
	require.NoError(t, err)

	assert.False(t, resp.MockMode)
	assert.Equal(t, map[string]interface{}{"name": "Happy Paws"}, resp.Fields)
	assert.Contains(t, model.prompts[0], "- phone (phone, optional)")
}

func TestListingAutofiller_Errors(t *testing.T) {
	_, err := NewListingAutofiller(nil, nil).Autofill(context.Background(), vetDirectory, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewListingAutofiller(&fakeModel{out: "[1,2]"}, nil).Autofill(context.Background(), vetDirectory, "x")
	assert.ErrorIs(t, err, ErrInvalidModelOutput)
}
