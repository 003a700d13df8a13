// Package toolproxy bridges the agent's tool protocol onto the tool
// execution server. It owns the tool catalog; the execution server only
// knows how to run tools by name.
package toolproxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"

	"github.com/digital-clone/server/internal/agent/model"
	logx "github.com/digital-clone/server/pkg/logger"
)

type Config struct {
	ListenAddr    string        `envconfig:"TOOL_PROXY_ADDR" default:":8001"`
	ToolServerURL string        `envconfig:"TOOL_SERVER_URL" default:"http://localhost:8002"`
	CallTimeout   time.Duration `envconfig:"TOOL_CALL_TIMEOUT" default:"30s"`
}

// executorResponse mirrors the execution server's response envelope.
type executorResponse struct {
	Result  string `json:"result"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Proxy struct {
	cfg    Config
	client *resty.Client
}

func New(cfg Config) *Proxy {
	return &Proxy{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(cfg.ToolServerURL).
			SetTimeout(cfg.CallTimeout),
	}
}

// Router exposes the tool protocol surface. GET /mcp doubles as the
// liveness probe: any 2xx means the proxy is reachable.
func (p *Proxy) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/mcp", p.handleListTools)
	r.Post("/mcp/{tool}", p.handleCallTool)
	return r
}

func (p *Proxy) handleListTools(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(model.ToolCatalog())
}

func (p *Proxy) handleCallTool(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")

	args, err := decodeArguments(r)
	if err != nil {
		respondText(w, http.StatusBadRequest, "Invalid tool arguments: "+err.Error())
		return
	}

	var out executorResponse
	resp, err := p.client.R().
		SetContext(r.Context()).
		SetHeader("Content-Type", "application/json").
		SetBody(args).
		SetResult(&out).
		Post("/tools/" + tool)
	if err != nil {
		logx.Warn().Str("tool", tool).Err(err).Msg("Tool server unreachable")
		respondText(w, http.StatusBadGateway, "Tool execution failed: "+err.Error())
		return
	}
	if !resp.IsSuccess() {
		logx.Warn().
			Str("tool", tool).
			Int("status", resp.StatusCode()).
			Msg("Tool server returned error status")
		respondText(w, resp.StatusCode(), resp.String())
		return
	}
	if !out.Success {
		respondText(w, http.StatusInternalServerError, out.Error)
		return
	}

	logx.Debug().Str("tool", tool).Msg("Tool call forwarded")
	respondText(w, http.StatusOK, out.Result)
}

// decodeArguments reads the JSON argument object; a missing or empty body
// means a tool with no arguments.
func decodeArguments(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}
	defer r.Body.Close()

	args := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return args, nil
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
