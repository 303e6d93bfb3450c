package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"askfolio/internal/assistant"
	"askfolio/internal/chunkstore"
	"askfolio/internal/models"
	"askfolio/internal/workflows"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errIngestUnavailable = errors.New("ingestion is not configured")

type Options struct {
	// Docs backs GET /docs; nil serves an empty list.
	Docs chunkstore.Source
	// Ingest starts ingestion workflows; nil answers /ingest with 503.
	Ingest         IngestStarter
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *zap.Logger
}

type Server struct {
	assistant *assistant.Assistant
	docs      chunkstore.Source
	ingest    IngestStarter
	limiter   *rate.Limiter
	logger    *zap.Logger
}

func NewServer(a *assistant.Assistant, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return &Server{assistant: a, docs: opts.Docs, ingest: opts.Ingest, limiter: limiter, logger: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/ask", s.rateLimit(http.HandlerFunc(s.handleAsk)))
	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/docs", s.handleDocs)
	mux.HandleFunc("/history", s.handleHistory)
	return withCORS(s.withRequestLog(mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	names := s.assistant.ProviderNames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "providers": names})
}

type askRequest struct {
	Question  string `json:"question"`
	TopicHint string `json:"topicHint"`
	SessionID string `json:"sessionId"`
}

type askResponse struct {
	RequestID     string   `json:"requestId"`
	Answer        string   `json:"answer"`
	Provider      string   `json:"provider"`
	Topic         string   `json:"topic"`
	Sources       []string `json:"sources"`
	Followups     []string `json:"followups"`
	Confidence    float64  `json:"confidence"`
	Clarification bool     `json:"clarification"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	resp, err := s.assistant.Ask(r.Context(), assistant.Request{
		Question:  req.Question,
		TopicHint: req.TopicHint,
		SessionID: strings.TrimSpace(req.SessionID),
	})
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		writeErr(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, assistant.ErrNoProvidersConfigured):
		writeErr(w, http.StatusBadGateway, err)
		return
	case err != nil:
		s.logger.Error("ask failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("question answered",
		zap.String("request_id", resp.RequestID),
		zap.String("topic", string(resp.Topic)),
		zap.String("provider", resp.Provider),
		zap.Float64("confidence", resp.Confidence),
	)
	writeJSON(w, http.StatusOK, askResponse{
		RequestID:     resp.RequestID,
		Answer:        resp.Answer,
		Provider:      resp.Provider,
		Topic:         string(resp.Topic),
		Sources:       resp.SourceStrings(),
		Followups:     resp.Followups,
		Confidence:    resp.Confidence,
		Clarification: resp.Clarification,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		URL   string `json:"url"`
		Title string `json:"title"`
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("url must be an absolute http(s) url"))
		return
	}
	if req.Topic != "" {
		if _, ok := models.ParseTopic(req.Topic); !ok {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown topic %q", req.Topic))
			return
		}
	}
	if s.ingest == nil {
		writeErr(w, http.StatusServiceUnavailable, errIngestUnavailable)
		return
	}
	started, err := s.ingest.StartIngest(r.Context(), workflows.IngestDocumentInput{
		URL:   req.URL,
		Title: strings.TrimSpace(req.Title),
		Topic: strings.ToLower(strings.TrimSpace(req.Topic)),
	})
	if err != nil {
		if errors.Is(err, ErrIngestRunning) {
			writeErr(w, http.StatusConflict, err)
			return
		}
		s.logger.Error("start ingestion failed", zap.String("url", req.URL), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"workflowId": started.WorkflowID,
		"runId":      started.RunID,
		"docId":      started.DocID,
		"status":     "started",
	})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	docs := []models.Doc{}
	if s.docs != nil {
		units, err := s.docs.LoadChunks(r.Context())
		if err != nil {
			s.logger.Error("load docs failed", zap.Error(err))
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		for _, u := range units {
			docs = append(docs, models.DocOf(u))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"docs": docs})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("sessionId is required"))
		return
	}
	turns, err := s.assistant.History(r.Context(), sessionID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "turns": turns})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeErr(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "AF-API-4000"

	switch {
	case status == http.StatusBadGateway:
		code = "AF-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
		if errors.Is(err, assistant.ErrNoProvidersConfigured) {
			msg = "No answer providers are configured on this deployment."
		}
		return apiError{Code: code, Message: msg}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "AF-API-5030", Message: "Document ingestion is not enabled on this deployment."}
	case status >= 500:
		return apiError{Code: "AF-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusBadRequest:
		code = "AF-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "AF-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "AF-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusConflict:
		code = "AF-API-4009"
		msg = "This document is already being ingested. Retry after it finishes."
	case status == http.StatusTooManyRequests:
		code = "AF-API-4029"
		msg = "Too many requests. Slow down and retry shortly."
	}

	// For 4xx, keep user-safe validation context only.
	if status == http.StatusBadRequest && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case errors.Is(err, assistant.ErrEmptyQuestion):
			msg = "A question is required."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "sessionid is required"):
			msg = "A sessionId query parameter is required."
		case strings.Contains(low, "url must be"):
			msg = "An absolute http(s) document url is required."
		case strings.Contains(low, "unknown topic"):
			msg = "Topic must be one of driving, web, about or all."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
