package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"directoryhub/backend/internal/services"
	"directoryhub/backend/pkg/models"
)

// CreateDirectoryRequest is the body of POST /api/v1/directories.
type CreateDirectoryRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Schema      json.RawMessage `json:"schema" validate:"required"`
}

// DirectoryList wraps a page of directories.
type DirectoryList struct {
	Directories []*models.Directory `json:"directories"`
}

// ListDirectories returns the tenant's directories.
// (GET /api/v1/directories)
func (h *Handler) ListDirectories(c echo.Context) error {
	dirs, err := h.directories.List(c.Request().Context())
	if err != nil {
		return err
	}
	if dirs == nil {
		dirs = []*models.Directory{}
	}
	return c.JSON(http.StatusOK, DirectoryList{Directories: dirs})
}

// CreateDirectory saves the schema produced by the creation wizard.
// (POST /api/v1/directories)
func (h *Handler) CreateDirectory(c echo.Context) error {
	var req CreateDirectoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dir, err := h.directories.Create(c.Request().Context(), services.CreateDirectoryInput{
		Name:        req.Name,
		Description: req.Description,
		Schema:      req.Schema,
		CreatedBy:   principalEmail(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dir)
}

// GetDirectory returns one directory.
// (GET /api/v1/directories/:id)
func (h *Handler) GetDirectory(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	dir, err := h.directories.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dir)
}
