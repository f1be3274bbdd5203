package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/services"
	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

const testTenant = "tenant-1"

// testMiddleware stands in for Okta: the X-Role header picks the principal.
func testMiddleware() Middleware {
	return Middleware{
		Authenticate: func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				ctx := tenancy.WithTenant(c.Request().Context(), testTenant)
				ctx = tenancy.WithPrincipal(ctx, tenancy.Principal{
					Email: "user@example.com",
					Admin: c.Request().Header.Get("X-Role") == "admin",
				})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
		},
		RequireAdmin: func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if p, ok := tenancy.PrincipalFrom(c.Request().Context()); !ok || !p.Admin {
					return echo.NewHTTPError(http.StatusForbidden, "admin role required")
				}
				return next(c)
			}
		},
	}
}

type stubModel struct {
	out string
	err error
}

func (m *stubModel) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	return m.out, m.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, model services.TextModel) (*echo.Echo, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	h := NewHandler(Deps{
		Store:       repo,
		Directories: services.NewDirectoryService(repo, nil),
		Listings:    services.NewListingService(repo, repo, nil),
		Generator:   services.NewLLMSchemaGenerator(model, nil),
		Autofiller:  services.NewListingAutofiller(model, nil),
		Version:     "test",
	})
	return NewRouter(h, testMiddleware(), "directoryhub-test"), repo
}

func do(t *testing.T, e *echo.Echo, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if admin {
		req.Header.Set("X-Role", "admin")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const coffeeSchema = `{"name":"Coffee","fields":[{"name":"name","required":true},{"name":"website","required":true},{"name":"hours"}]}`

func createDirectory(t *testing.T, e *echo.Echo) *models.Directory {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/directories",
		`{"name":"Coffee Shops","description":"Local roasters","schema":`+coffeeSchema+`}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.Directory](t, rec)
}

func TestHealth(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	rec := do(t, e, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthStatus](t, rec).Status)

	h := NewHandler(Deps{Store: failingPinger{}})
	e = NewRouter(h, testMiddleware(), "test")
	rec = do(t, e, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[HealthStatus](t, rec).Status)
}

func TestDirectories(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	dir := createDirectory(t, e)

	assert.Equal(t, "coffee-shops", dir.Slug)
	assert.Equal(t, testTenant, dir.TenantID)
	assert.Equal(t, "user@example.com", dir.CreatedBy)
	assert.JSONEq(t, coffeeSchema, string(dir.Schema))

	rec := do(t, e, http.MethodGet, "/api/v1/directories", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[DirectoryList](t, rec)
	require.Len(t, list.Directories, 1)
	assert.Equal(t, dir.ID, list.Directories[0].ID)

	rec = do(t, e, http.MethodGet, "/api/v1/directories/"+dir.ID, "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Coffee Shops", decode[models.Directory](t, rec).Name)
}

func TestDirectories_Errors(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	createDirectory(t, e)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		admin      bool
		wantStatus int
		wantDetail string
	}{
		{"non-admin create", http.MethodPost, "/api/v1/directories", `{"name":"x","schema":{}}`, false, http.StatusForbidden, "admin role required"},
		{"missing name", http.MethodPost, "/api/v1/directories", `{"schema":{}}`, true, http.StatusBadRequest, "name is required"},
		{"schema not an object", http.MethodPost, "/api/v1/directories", `{"name":"x","schema":[1]}`, true, http.StatusBadRequest, "validation failed: schema must be a JSON object"},
		{"duplicate slug", http.MethodPost, "/api/v1/directories", `{"name":"coffee shops!","schema":{}}`, true, http.StatusBadRequest, ""},
		{"malformed body", http.MethodPost, "/api/v1/directories", `{`, true, http.StatusBadRequest, "invalid request body"},
		{"bad id", http.MethodGet, "/api/v1/directories/not-a-uuid", "", false, http.StatusBadRequest, ""},
		{"unknown id", http.MethodGet, "/api/v1/directories/7f1c1a3e-5d0b-4c52-9b77-2b1d3c9f0e11", "", false, http.StatusNotFound, "resource not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, tt.method, tt.path, tt.body, tt.admin)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))

			problem := decode[ProblemDetails](t, rec)
			assert.Equal(t, tt.wantStatus, problem.Status)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, problem.Detail)
			}
		})
	}
}

func TestListingReviewFlow(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	dir := createDirectory(t, e)
	base := "/api/v1/directories/" + dir.ID + "/listings"

	rec := do(t, e, http.MethodPost, base, `{"title":"Blue Bottle","data":{"hours":"7-5"}}`, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ProblemDetails](t, rec).Detail, "website")

	rec = do(t, e, http.MethodPost, base, `{"title":"Blue Bottle","data":{"website":"https://bluebottle.example"}}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listing := decode[models.Listing](t, rec)
	assert.Equal(t, models.ListingStatusPending, listing.Status)
	assert.Equal(t, "Blue Bottle", listing.Data["name"])

	rec = do(t, e, http.MethodGet, "/api/v1/listings/pending", "", false)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/listings/pending?limit=10", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[ListingList](t, rec).Listings, 1)

	rec = do(t, e, http.MethodPost, "/api/v1/listings/"+listing.ID+"/approve", `{"note":"looks good"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[models.Listing](t, rec)
	assert.Equal(t, models.ListingStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewNote)
	assert.Equal(t, "looks good", *approved.ReviewNote)

	rec = do(t, e, http.MethodPost, "/api/v1/listings/"+listing.ID+"/reject", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodGet, base+"?status=approved", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ListingList](t, rec).Listings, 1)

	rec = do(t, e, http.MethodGet, base+"?status=pending", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[ListingList](t, rec).Listings)

	rec = do(t, e, http.MethodGet, base+"?status=bogus", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPending_Limit(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	for _, q := range []string{"limit=0", "limit=501", "limit=ten"} {
		rec := do(t, e, http.MethodGet, "/api/v1/listings/pending?"+q, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGenerateSchema_MockMode(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	rec := do(t, e, http.MethodPost, "/api/llm/generateSchema",
		`{"interviewAnswers":{"directoryType":"Vets","exampleOrganizations":"","requiredFields":"phone","optionalFields":""}}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.GenerateSchemaResponse](t, rec)
	assert.True(t, resp.MockMode)
	names := []string{}
	for _, f := range services.SchemaFields(resp.Schema) {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "phone")
}

func TestGenerateSchema_Failures(t *testing.T) {
	tests := []struct {
		name       string
		model      *stubModel
		body       string
		admin      bool
		wantStatus int
		wantError  string
	}{
		{"model output not json", &stubModel{out: "sorry"}, `{"interviewAnswers":{}}`, true, http.StatusBadGateway, "The language model returned an unusable answer"},
		{"model down", &stubModel{err: errors.New("quota")}, `{"interviewAnswers":{}}`, true, http.StatusInternalServerError, services.DefaultFailureMessage},
		{"model timeout", &stubModel{err: context.DeadlineExceeded}, `{"interviewAnswers":{}}`, true, http.StatusGatewayTimeout, "The language model timed out"},
		{"malformed body", &stubModel{}, `[`, true, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestRouter(t, tt.model)
			rec := do(t, e, http.MethodPost, "/api/llm/generateSchema", tt.body, tt.admin)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decode[models.LLMError](t, rec).Error)
		})
	}

	e, _ := newTestRouter(t, nil)
	rec := do(t, e, http.MethodPost, "/api/llm/generateSchema", `{"interviewAnswers":{}}`, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// The workflow's HTTP client and this server agree on the wire contract.
func TestGenerateSchema_WorkflowRoundTrip(t *testing.T) {
	e, _ := newTestRouter(t, &stubModel{out: "```json\n" + coffeeSchema + "\n```"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Set("X-Role", "admin")
		e.ServeHTTP(w, r)
	}))
	defer srv.Close()

	wf := services.NewSchemaWorkflow(services.NewHTTPSchemaClient(srv.URL, 0))
	var got json.RawMessage
	err := wf.Generate(context.Background(), models.InterviewAnswers{DirectoryType: "Coffee"},
		func(schema json.RawMessage) { got = schema }, nil)
	require.NoError(t, err)
	assert.JSONEq(t, coffeeSchema, string(got))
	assert.Equal(t, services.Status{}, wf.Status())

	// failures surface the server's error text
	bad, _ := newTestRouter(t, &stubModel{out: "nope"})
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Set("X-Role", "admin")
		bad.ServeHTTP(w, r)
	}))
	defer srv2.Close()

	wf = services.NewSchemaWorkflow(services.NewHTTPSchemaClient(srv2.URL, 0))
	require.Error(t, wf.Generate(context.Background(), models.InterviewAnswers{}, nil, nil))
	assert.Equal(t, "The language model returned an unusable answer", wf.Status().Error)
}

func TestAutofill(t *testing.T) {
	e, _ := newTestRouter(t, &stubModel{out: `{"website":"https://stumptown.example","hours":null,"extra":"x"}`})
	dir := createDirectory(t, e)

	rec := do(t, e, http.MethodPost, "/api/llm/autofill", `{"directoryId":"`+dir.ID+`","source":"Stumptown, stumptown.example"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[models.AutofillResponse](t, rec)
	assert.Equal(t, map[string]interface{}{"website": "https://stumptown.example"}, resp.Fields)
	assert.False(t, resp.MockMode)

	rec = do(t, e, http.MethodPost, "/api/llm/autofill", `{"directoryId":"7f1c1a3e-5d0b-4c52-9b77-2b1d3c9f0e11","source":"x"}`, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "directory not found", decode[models.LLMError](t, rec).Error)

	rec = do(t, e, http.MethodPost, "/api/llm/autofill", `{"directoryId":"nope"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	llmErr := decode[models.LLMError](t, rec)
	assert.Equal(t, "invalid request", llmErr.Error)
	assert.Contains(t, llmErr.Message, "directoryId must be a UUID")
	assert.Contains(t, llmErr.Message, "source is required")
}

func TestDocs(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	RegisterDocs(e, DocsConfig{OktaIssuer: "https://example.okta.com/oauth2/default", ClientID: "swagger-client", Scopes: []string{"openid", "email"}})

	rec := do(t, e, http.MethodGet, "/openapi.yaml", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.okta.com/oauth2/default/v1/authorize")
	assert.NotContains(t, rec.Body.String(), "{oktaIssuer}")

	rec = do(t, e, http.MethodGet, "/docs", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clientId: "swagger-client"`)
	assert.Contains(t, rec.Body.String(), `scopes: "openid email"`)
	assert.Contains(t, rec.Body.String(), "http://example.com/docs/oauth2-redirect.html")
}
