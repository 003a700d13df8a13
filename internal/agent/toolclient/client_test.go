package toolclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-clone/server/internal/agent/model"
)

func newFakeProxy(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.ToolCatalog())
	})
	mux.HandleFunc("POST /mcp/calculate", func(w http.ResponseWriter, r *http.Request) {
		args := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&args)
		assert.Equal(t, "15 * 23", args["expression"])
		_, _ = io.WriteString(w, "Result: 345")
	})
	mux.HandleFunc("POST /mcp/web_search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Search failed with status 500")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthCheck(t *testing.T) {
	srv := newFakeProxy(t)
	client := NewHTTPClient(srv.URL)

	assert.True(t, client.HealthCheck(context.Background()))
}

func TestHealthCheckUnreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1")

	assert.False(t, client.HealthCheck(context.Background()))
}

func TestExecuteToolSuccess(t *testing.T) {
	srv := newFakeProxy(t)
	client := NewHTTPClient(srv.URL)

	out := client.ExecuteTool(context.Background(), model.ToolCalculate, map[string]any{"expression": "15 * 23"})

	assert.True(t, out.Success)
	assert.Equal(t, model.ToolCalculate, out.ToolName)
	assert.Equal(t, "Result: 345", out.Result)
	assert.False(t, out.Timestamp.IsZero())
}

func TestExecuteToolErrorStatus(t *testing.T) {
	srv := newFakeProxy(t)
	client := NewHTTPClient(srv.URL)

	out := client.ExecuteTool(context.Background(), model.ToolWebSearch, map[string]any{"query": "x"})

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "500")
}

func TestExecuteToolUnreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1")

	out := client.ExecuteTool(context.Background(), model.ToolCalculate, nil)

	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}

func TestListTools(t *testing.T) {
	srv := newFakeProxy(t)
	client := NewHTTPClient(srv.URL)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 7)
	assert.Equal(t, model.ToolWebSearch, tools[0].Name)
}

func TestListToolsUnreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1")

	_, err := client.ListTools(context.Background())
	assert.Error(t, err)
}
