package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"directoryhub/backend/pkg/models"
)

const autofillSystemPrompt = `You fill in directory listings.
Answer with a single JSON object whose keys are exactly the field names you are given.
Use null for anything the source does not state. Never invent contact details.`

// ListingAutofiller suggests listing values for a directory from free text.
type ListingAutofiller struct {
	model  TextModel
	logger Logger
}

// NewListingAutofiller creates an autofiller. model may be nil.
func NewListingAutofiller(model TextModel, logger Logger) *ListingAutofiller {
	return &ListingAutofiller{model: model, logger: orNop(logger)}
}

// Autofill returns suggested values keyed by the directory's schema fields.
func (a *ListingAutofiller) Autofill(ctx context.Context, directory *models.Directory, source string) (*models.AutofillResponse, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: source is required", ErrValidation)
	}
	fields := SchemaFields(directory.Schema)

	if a.model == nil {
		out := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			out[f.Name] = ""
		}
		return &models.AutofillResponse{Fields: out, MockMode: true}, nil
	}

	prompt := fmt.Sprintf("Directory: %s\nFields:\n%sSource:\n%s\n", directory.Name, describeFields(fields), source)
	text, err := a.model.GenerateJSON(ctx, autofillSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to autofill listing: %w", err)
	}

	var suggested map[string]interface{}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &suggested); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}

	if len(fields) == 0 {
		return &models.AutofillResponse{Fields: suggested}, nil
	}
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if v, ok := suggested[f.Name]; ok && v != nil {
			out[f.Name] = v
		}
	}
	a.logger.Debug("listing autofilled", "directory_id", directory.ID, "filled", len(out), "fields", len(fields))
	return &models.AutofillResponse{Fields: out}, nil
}
