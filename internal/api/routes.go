package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Middleware holds the authentication middleware applied to API routes.
type Middleware struct {
	Authenticate echo.MiddlewareFunc
	RequireAdmin echo.MiddlewareFunc
}

// NewRouter builds the echo instance serving the REST API.
func NewRouter(h *Handler, mw Middleware, serviceName string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = h.HandleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if h.logger != nil {
				h.logger.Info("request",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency", v.Latency.String(),
					"request_id", v.RequestID,
				)
			}
			return nil
		},
	}))

	e.GET("/healthz", h.HandleHealth)
	RegisterHandlers(e, h, mw)
	return e
}

// RegisterHandlers adds the API routes to e.
func RegisterHandlers(e *echo.Echo, h *Handler, mw Middleware) {
	authn := passthrough(mw.Authenticate)
	admin := passthrough(mw.RequireAdmin)

	v1 := e.Group("/api/v1", authn)
	v1.GET("/directories", h.ListDirectories)
	v1.POST("/directories", h.CreateDirectory, admin)
	v1.GET("/directories/:id", h.GetDirectory)
	v1.GET("/directories/:id/listings", h.ListDirectoryListings)
	v1.POST("/directories/:id/listings", h.SubmitListing)
	v1.GET("/listings/pending", h.ListPendingListings, admin)
	v1.POST("/listings/:id/approve", h.ApproveListing, admin)
	v1.POST("/listings/:id/reject", h.RejectListing, admin)

	llm := e.Group("/api/llm", authn)
	llm.POST("/generateSchema", h.GenerateSchema, admin)
	llm.POST("/autofill", h.Autofill)
}

func passthrough(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw != nil {
		return mw
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
