package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"directoryhub/backend/pkg/models"
)

// GenerateSchemaPath is the route of the schema inference endpoint.
const GenerateSchemaPath = "/api/llm/generateSchema"

const maxResponseBytes = 4 << 20

// HTTPSchemaClient is an HTTP implementation of the SchemaGenerator interface.
type HTTPSchemaClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures an HTTPSchemaClient.
type ClientOption func(*HTTPSchemaClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *HTTPSchemaClient) {
		s.httpClient = c
	}
}

// WithBearerToken sends token in the Authorization header.
func WithBearerToken(token string) ClientOption {
	return func(s *HTTPSchemaClient) {
		s.token = token
	}
}

// NewHTTPSchemaClient creates a new HTTPSchemaClient. A zero timeout means the
// request waits as long as ctx allows.
func NewHTTPSchemaClient(baseURL string, timeout time.Duration, opts ...ClientOption) *HTTPSchemaClient {
	c := &HTTPSchemaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateSchema posts the interview answers to the inference service. Every
// failure is returned as a *RequestFailure.
func (c *HTTPSchemaClient) GenerateSchema(ctx context.Context, answers models.InterviewAnswers) (*models.GenerateSchemaResponse, error) {
	requestBody, err := json.Marshal(models.GenerateSchemaRequest{InterviewAnswers: answers})
	if err != nil {
		return nil, failure(0, DefaultFailureMessage, fmt.Errorf("failed to marshal request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GenerateSchemaPath, bytes.NewReader(requestBody))
	if err != nil {
		return nil, failure(0, DefaultFailureMessage, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure(0, DefaultFailureMessage, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failure(resp.StatusCode, failureText(body), fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
	if readErr != nil {
		return nil, failure(resp.StatusCode, DefaultFailureMessage, fmt.Errorf("failed to read response body: %w", readErr))
	}

	return decodeSchemaResponse(resp.StatusCode, body)
}

func decodeSchemaResponse(status int, body []byte) (*models.GenerateSchemaResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, failure(status, DefaultFailureMessage, fmt.Errorf("failed to decode response body"))
	}

	schema := gjson.GetBytes(body, "schema")
	if !schema.Exists() || schema.Type == gjson.Null {
		return nil, failure(status, failureText(body), fmt.Errorf("response did not include a schema"))
	}

	return &models.GenerateSchemaResponse{
		Schema: json.RawMessage(schema.Raw),
		// any truthy value counts, not only a JSON boolean
		MockMode: gjson.GetBytes(body, "mockMode").Bool(),
	}, nil
}

// failureText prefers a server supplied error, then message, then the
// generic fallback.
func failureText(body []byte) string {
	if !gjson.ValidBytes(body) {
		return DefaultFailureMessage
	}
	for _, key := range []string{"error", "message"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return v.Str
		}
	}
	return DefaultFailureMessage
}

func failure(status int, message string, err error) *RequestFailure {
	return &RequestFailure{StatusCode: status, Message: message, Err: err}
}
