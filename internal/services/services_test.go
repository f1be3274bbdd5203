package services

import (
	"context"
	"errors"

	"directoryhub/backend/pkg/models"
)

// fakeGenerator answers from a queue of canned results.
type fakeGenerator struct {
	calls   int
	answers []models.InterviewAnswers
	results []fakeResult
	// block, when set, is waited on before answering.
	block chan struct{}
}

type fakeResult struct {
	resp *models.GenerateSchemaResponse
	err  error
}

func (f *fakeGenerator) GenerateSchema(ctx context.Context, answers models.InterviewAnswers) (*models.GenerateSchemaResponse, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.answers = append(f.answers, answers)
	r := f.results[f.calls]
	f.calls++
	return r.resp, r.err
}

// fakeModel is a canned TextModel.
type fakeModel struct {
	out     string
	err     error
	prompts []string
}

func (m *fakeModel) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.out, m.err
}

var errBoom = errors.New("boom")
