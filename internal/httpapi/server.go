package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digital-clone/server/internal/agent/graph"
	"github.com/digital-clone/server/internal/agent/model"
	"github.com/digital-clone/server/internal/agent/session"
	"github.com/digital-clone/server/internal/agent/toolclient"
	"github.com/digital-clone/server/internal/observability"
	errx "github.com/digital-clone/server/internal/core/error"
	logx "github.com/digital-clone/server/pkg/logger"
)

// PipelineFactory builds a turn pipeline for the given agent configuration.
// The configuration endpoint uses it to rebuild the pipeline after an update;
// the session store must be shared across rebuilds by the factory.
type PipelineFactory func(ctx context.Context, cfg model.AgentConfig) (*graph.Pipeline, error)

type Server struct {
	mu       sync.RWMutex
	pipeline *graph.Pipeline
	factory  PipelineFactory
	tools    toolclient.Client
}

func New(pipeline *graph.Pipeline, factory PipelineFactory, tools toolclient.Client) *Server {
	return &Server{
		pipeline: pipeline,
		factory:  factory,
		tools:    tools,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/chat", s.handleChat)
	r.Get("/config", s.handleGetConfig)
	r.Put("/config", s.handleUpdateConfig)
	r.Get("/tools", s.handleListTools)
	r.Get("/conversations/{id}", s.handleGetConversation)

	return r
}

func (s *Server) current() *graph.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"agent_ready":     true,
		"tools_available": s.tools.HealthCheck(r.Context()),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := s.current().ProcessMessage(r.Context(), req)
	if err != nil {
		if errors.Is(err, errx.ErrValidation) {
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		logx.Error().Err(err).Msg("Chat turn failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		ConversationResponse: *resp,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.current().Config())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var upd model.ConfigUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.pipeline.Config().Apply(upd)
	pipeline, err := s.factory(r.Context(), next)
	if err != nil {
		logx.Error().Err(err).Msg("Pipeline rebuild failed, keeping previous configuration")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to apply configuration")
		return
	}
	s.pipeline = pipeline

	logx.Info().
		Str("model", next.ModelName).
		Bool("enable_tools", next.EnableTools).
		Msg("Agent configuration updated")
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "updated",
		"config": next,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.tools.ListTools(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "tools_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"tools": tools,
		"count": len(tools),
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.current().Sessions().Snapshot(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"conversation_id": state.ConversationID,
		"messages":        state.Messages,
		"message_count":   len(state.Messages),
		"current_task":    state.CurrentTask,
		"agent_memory":    state.AgentMemory,
	})
}

type chatResponse struct {
	model.ConversationResponse
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
