package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directoryhub/backend/pkg/models"
)

func runCLI(t *testing.T, handler http.HandlerFunc, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"generate-schema", "--server", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateSchema_PrintsSchema(t *testing.T) {
	var got models.GenerateSchemaRequest
	stdout, stderr, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"schema":{"fields":[{"name":"name"}]},"mockMode":true}`)
	}, "--token", "abc", "--type", "Bakeries", "--required", "address")

	require.NoError(t, err)
	assert.Equal(t, models.InterviewAnswers{DirectoryType: "Bakeries", RequiredFields: "address"}, got.InterviewAnswers)
	assert.JSONEq(t, `{"fields":[{"name":"name"}]}`, stdout)
	assert.Contains(t, stdout, "\n  \"fields\"")
	assert.Equal(t,
		"Generating schema...\nWarning: no language model is configured; this is a placeholder schema.\n",
		stderr)
}

func TestGenerateSchema_Failure(t *testing.T) {
	stdout, stderr, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"admin role required"}`)
	}, "--type", "Bakeries")

	require.EqualError(t, err, "admin role required")
	assert.Empty(t, stdout)
	assert.Equal(t, "Generating schema...\nError: admin role required\n", stderr)
}
