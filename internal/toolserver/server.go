// Package toolserver hosts the tool implementations behind a plain HTTP
// surface. Tool failures are reported inside the response envelope, not as
// HTTP errors; only an unknown tool name is a protocol-level error.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"

	"github.com/digital-clone/server/internal/agent/model"
	logx "github.com/digital-clone/server/pkg/logger"
)

type Config struct {
	ListenAddr     string        `envconfig:"TOOL_SERVER_ADDR" default:":8002"`
	SearchBaseURL  string        `envconfig:"SEARCH_BASE_URL" default:"https://api.duckduckgo.com"`
	WhisperBaseURL string        `envconfig:"WHISPER_BASE_URL" default:"https://api.openai.com"`
	OpenAIKey      string        `envconfig:"OPENAI_API_KEY"`
	HTTPTimeout    time.Duration `envconfig:"TOOL_HTTP_TIMEOUT" default:"60s"`
}

// Response is the envelope every tool call returns.
type Response struct {
	Result  string `json:"result"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type handlerFunc func(ctx context.Context, args map[string]any) (string, error)

type Server struct {
	cfg      Config
	client   *resty.Client
	handlers map[string]handlerFunc
}

func New(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.HTTPTimeout),
	}
	s.handlers = map[string]handlerFunc{
		model.ToolWebSearch:       s.webSearch,
		model.ToolReadFile:        s.readFile,
		model.ToolWriteFile:       s.writeFile,
		model.ToolListDirectory:   s.listDirectory,
		model.ToolCalculate:       s.calculate,
		model.ToolGetSystemInfo:   s.getSystemInfo,
		model.ToolTranscribeAudio: s.transcribeAudio,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/tools/{tool}", s.handleExecute)
	r.Get("/tools/health", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "healthy",
		"tools":  len(s.handlers),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")

	handler, ok := s.handlers[tool]
	if !ok {
		respondEnvelope(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Unknown tool: " + tool,
		})
		return
	}

	args, err := decodeArguments(r)
	if err != nil {
		respondEnvelope(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid arguments: " + err.Error(),
		})
		return
	}

	result, err := handler(r.Context(), args)
	if err != nil {
		logx.Debug().Str("tool", tool).Err(err).Msg("Tool failed")
		respondEnvelope(w, http.StatusOK, Response{Success: false, Error: err.Error()})
		return
	}

	logx.Debug().Str("tool", tool).Msg("Tool executed")
	respondEnvelope(w, http.StatusOK, Response{Result: result, Success: true})
}

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

func respondEnvelope(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument: %s", key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", key)
	}
	return str, nil
}
