package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 500
)

// pathUUID binds a simple-style path parameter that must be a UUID.
func pathUUID(c echo.Context, name string) (string, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: not a UUID", name))
	}
	return id.String(), nil
}

// ListListingsParams are the query parameters of GET /directories/:id/listings.
type ListListingsParams struct {
	Status *string `form:"status,omitempty" json:"status,omitempty"`
}

func bindListListingsParams(c echo.Context) (ListListingsParams, error) {
	var params ListListingsParams
	if err := runtime.BindQueryParameter("form", true, false, "status", c.QueryParams(), &params.Status); err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter status: %s", err))
	}
	return params, nil
}

// ListPendingParams are the query parameters of GET /listings/pending.
type ListPendingParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

func bindListPendingParams(c echo.Context) (ListPendingParams, error) {
	var params ListPendingParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &params.Limit); err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}
	return params, nil
}

func (p ListPendingParams) limit() (int, error) {
	if p.Limit == nil {
		return defaultPendingLimit, nil
	}
	if *p.Limit < 1 || *p.Limit > maxPendingLimit {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxPendingLimit))
	}
	return *p.Limit, nil
}
