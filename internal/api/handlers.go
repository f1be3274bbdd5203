// Package api contains the HTTP handlers for the directory service
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/services"
	"directoryhub/backend/internal/tenancy"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers for the directory service REST API
type Handler struct {
	store       Pinger
	directories *services.DirectoryService
	listings    *services.ListingService
	generator   services.SchemaGenerator
	autofiller  *services.ListingAutofiller
	logger      Logger
	version     string
}

// Deps are the collaborators of Handler.
type Deps struct {
	Store       Pinger
	Directories *services.DirectoryService
	Listings    *services.ListingService
	Generator   services.SchemaGenerator
	Autofiller  *services.ListingAutofiller
	Logger      Logger
	Version     string
}

// NewHandler creates a new Handler with required dependencies
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:       d.Store,
		directories: d.Directories,
		listings:    d.Listings,
		generator:   d.Generator,
		autofiller:  d.Autofiller,
		logger:      d.Logger,
		version:     d.Version,
	}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Storage   string    `json:"storage"`
}

// HandleHealth returns 200 when storage answers and 503 otherwise.
// (GET /healthz)
func (h *Handler) HandleHealth(c echo.Context) error {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   "directoryhub",
		Version:   h.version,
		Storage:   "ok",
	}
	code := http.StatusOK
	if err := h.store.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.Storage = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// HandleError is the echo error handler. It writes RFC 7807 problem details.
func (h *Handler) HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := toHTTPError(err)
	detail := http.StatusText(he.Code)
	if msg, ok := he.Message.(string); ok {
		detail = msg
	}
	if he.Code >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}

	problem := ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(he.Code),
		Status:   he.Code,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, problem)
}

// toHTTPError maps service errors onto HTTP statuses.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	case errors.Is(err, services.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, tenancy.ErrNoTenant):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

func principalEmail(c echo.Context) string {
	if p, ok := tenancy.PrincipalFrom(c.Request().Context()); ok {
		return p.Email
	}
	return ""
}
