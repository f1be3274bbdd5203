package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/services"
	"directoryhub/backend/pkg/models"
)

// GenerateSchema infers a directory schema from interview answers. The
// answers are passed through without further validation.
// (POST /api/llm/generateSchema)
func (h *Handler) GenerateSchema(c echo.Context) error {
	var req models.GenerateSchemaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.LLMError{Error: "invalid request body"})
	}

	resp, err := h.generator.GenerateSchema(c.Request().Context(), req.InterviewAnswers)
	if err != nil {
		return h.llmFailure(c, "schema generation failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Autofill suggests listing values for a directory from pasted text.
// (POST /api/llm/autofill)
func (h *Handler) Autofill(c echo.Context) error {
	var req models.AutofillRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.LLMError{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.LLMError{Error: "invalid request", Message: httpMessage(err)})
	}

	ctx := c.Request().Context()
	dir, err := h.directories.Get(ctx, req.DirectoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.LLMError{Error: "directory not found"})
		}
		return h.llmFailure(c, "autofill lookup failed", err)
	}

	resp, err := h.autofiller.Autofill(ctx, dir, req.Source)
	if err != nil {
		return h.llmFailure(c, "autofill failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// llmFailure writes the {"error","message"} body the schema client reads.
func (h *Handler) llmFailure(c echo.Context, logMsg string, err error) error {
	if h.logger != nil {
		h.logger.Error(logMsg, "error", err)
	}
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.LLMError{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidModelOutput):
		return c.JSON(http.StatusBadGateway, models.LLMError{
			Error:   "The language model returned an unusable answer",
			Message: "Try again or rephrase your answers",
		})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, models.LLMError{Error: "The language model timed out"})
	}
	return c.JSON(http.StatusInternalServerError, models.LLMError{Error: services.DefaultFailureMessage})
}

func httpMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
