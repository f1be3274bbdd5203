package services

import (
	"context"

	"directoryhub/backend/pkg/models"
)

// SchemaGenerator infers a directory schema from interview answers.
type SchemaGenerator interface {
	GenerateSchema(ctx context.Context, answers models.InterviewAnswers) (*models.GenerateSchemaResponse, error)
}

// TextModel is a language model that answers with a JSON document.
type TextModel interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
