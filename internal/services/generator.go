package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"directoryhub/backend/pkg/models"
)

const schemaSystemPrompt = `You design data schemas for online directories.
Answer with a single JSON object of the form
{"name": string, "description": string, "fields": [{"name": snake_case string, "label": string, "type": one of "text","textarea","url","email","phone","number","boolean","date","select", "required": boolean, "description": string}]}.
Every field the admin lists as required must be present with "required": true.`

// LLMSchemaGenerator serves schema inference. Without a model it answers with
// a placeholder schema and reports mock mode.
type LLMSchemaGenerator struct {
	model  TextModel
	logger Logger
}

// NewLLMSchemaGenerator creates a generator. model may be nil.
func NewLLMSchemaGenerator(model TextModel, logger Logger) *LLMSchemaGenerator {
	return &LLMSchemaGenerator{model: model, logger: orNop(logger)}
}

// GenerateSchema infers a directory schema from the interview answers.
func (g *LLMSchemaGenerator) GenerateSchema(ctx context.Context, answers models.InterviewAnswers) (*models.GenerateSchemaResponse, error) {
	if g.model == nil {
		g.logger.Warn("no language model configured, returning placeholder schema")
		schema, err := json.Marshal(MockSchema(answers))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal placeholder schema: %w", err)
		}
		return &models.GenerateSchemaResponse{Schema: schema, MockMode: true}, nil
	}

	out, err := g.model.GenerateJSON(ctx, schemaSystemPrompt, buildSchemaPrompt(answers))
	if err != nil {
		return nil, fmt.Errorf("failed to infer schema: %w", err)
	}

	out = stripCodeFence(out)
	if !gjson.Valid(out) {
		return nil, fmt.Errorf("%w: not JSON", ErrInvalidModelOutput)
	}
	if !gjson.Get(out, "fields").IsArray() {
		return nil, fmt.Errorf("%w: missing fields array", ErrInvalidModelOutput)
	}

	g.logger.Debug("schema inferred", "directory_type", answers.DirectoryType, "bytes", len(out))
	return &models.GenerateSchemaResponse{Schema: json.RawMessage(out)}, nil
}

func buildSchemaPrompt(a models.InterviewAnswers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Directory type: %s\n", a.DirectoryType)
	fmt.Fprintf(&b, "Example organizations: %s\n", a.ExampleOrganizations)
	fmt.Fprintf(&b, "Required fields: %s\n", a.RequiredFields)
	fmt.Fprintf(&b, "Optional fields: %s\n", a.OptionalFields)
	b.WriteString("Design the listing schema for this directory.")
	return b.String()
}

// MockSchema builds a placeholder schema from the field lists in the answers.
// Every listing gets a required name field.
func MockSchema(a models.InterviewAnswers) DirectorySchema {
	schema := DirectorySchema{
		Name:        orDefault(a.DirectoryType, "Directory"),
		Description: "Placeholder schema generated without a language model.",
		Fields: []SchemaField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
		},
	}
	seen := map[string]bool{"name": true}

	add := func(labels []string, required bool) {
		for _, label := range labels {
			key := fieldKey(label)
			if seen[key] {
				continue
			}
			seen[key] = true
			schema.Fields = append(schema.Fields, SchemaField{
				Name:     key,
				Label:    label,
				Type:     guessType(key),
				Required: required,
			})
		}
	}
	add(splitList(a.RequiredFields), true)
	add(splitList(a.OptionalFields), false)

	return schema
}

func guessType(key string) string {
	switch {
	case strings.Contains(key, "email"):
		return "email"
	case strings.Contains(key, "phone"):
		return "phone"
	case strings.Contains(key, "website"), strings.Contains(key, "url"):
		return "url"
	case strings.Contains(key, "description"), strings.Contains(key, "notes"):
		return "textarea"
	}
	return "text"
}
