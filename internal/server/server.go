// Package server exposes the tracker over http.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/internal/history"
	"tcgwatch/internal/pipeline"
	"tcgwatch/internal/tracker"
)

const (
	report_server_scrape  = "server.scrape"
	report_server_history = "server.history"
	report_server_encode  = "server.encode"
	report_server_auth    = "server.auth"
)

const APIKeyHeader = "X-API-Key"

// RunState is the part of the tracker the server depends on.
type RunState interface {
	Trigger(ctx context.Context, req pipeline.Request) error
	Results() []catalog.ValidatedItem
	Status() tracker.Status
}

type Options struct {
	// APIKey guards POST /api/scrape, with an empty key every trigger is refused.
	APIKey string
	// Defaults fills in whatever a scrape request leaves out.
	Defaults pipeline.Request
	// History serves GET /api/history, it may be nil.
	History history.API
}

// ScrapeRequest is the body of POST /api/scrape, every field is optional.
type ScrapeRequest struct {
	Retailers  []string           `json:"retailers"`
	Thresholds map[string]float64 `json:"thresholds"`
	// CheckInterval is accepted for compatibility, a triggered run is always
	// a single run so it has no effect.
	CheckInterval int `json:"check_interval"`
}

type message struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Status  string `json:"status,omitempty"`
}

type Server struct {
	state RunState
	opts  Options
	tel   telemetry.API
}

func NewServer(state RunState, opts Options, tel telemetry.API) *Server {
	assert.NotNil(state)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("server", tel)
	if opts.APIKey == "" {
		tel.ReportWarning(report_server_auth, "no api key configured, POST /api/scrape rejects every request")
	}
	return &Server{state: state, opts: opts, tel: tel}
}

// Handler returns the routes of the server wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scrape", s.scrape)
	mux.HandleFunc("GET /api/products", s.products)
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/history", s.history)
	mux.HandleFunc("GET /health", s.health)
	return cors(mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		s.tel.ReportWarning(report_server_encode, err)
	}
}

// authorized never lets a request through when no key is configured.
func (s *Server) authorized(r *http.Request) bool {
	if s.opts.APIKey == "" {
		return false
	}
	got := r.Header.Get(APIKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.APIKey)) == 1
}

// request merges the body of a scrape request with the defaults.
func (s *Server) request(body ScrapeRequest) (pipeline.Request, error) {
	req := s.opts.Defaults
	if len(body.Retailers) > 0 {
		retailers, err := catalog.ParseRetailers(body.Retailers)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Retailers = retailers
	}
	if len(body.Thresholds) > 0 {
		for key, ceiling := range body.Thresholds {
			if ceiling < 0 {
				return pipeline.Request{}, fmt.Errorf("negative threshold for %q", key)
			}
		}
		req.Thresholds = catalog.NewThresholds(body.Thresholds)
	}
	if len(req.Retailers) == 0 {
		return pipeline.Request{}, fmt.Errorf("no retailers to check")
	}
	return req, nil
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.writeJSON(w, http.StatusForbidden, message{Detail: "Invalid API key"})
		return
	}

	var body ScrapeRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, message{Detail: fmt.Sprintf("invalid body: %s", err)})
		return
	}
	req, err := s.request(body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, message{Detail: err.Error()})
		return
	}

	err = s.state.Trigger(r.Context(), req)
	if errors.Is(err, tracker.ErrRunActive) {
		s.writeJSON(w, http.StatusConflict, message{Detail: "Scraper is already running"})
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_server_scrape, err)
		s.writeJSON(w, http.StatusInternalServerError, message{Detail: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusAccepted, message{Message: "Scraper started"})
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	items := s.state.Results()
	if items == nil {
		items = []catalog.ValidatedItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.state.Status())
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		s.writeJSON(w, http.StatusNotFound, message{Detail: "history is disabled"})
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeJSON(w, http.StatusBadRequest, message{Detail: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		s.tel.ReportBroken(report_server_history, err)
		s.writeJSON(w, http.StatusInternalServerError, message{Detail: "failed to read history"})
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, message{Status: "ok"})
}

// cors allows any origin, preflight requests are answered directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
			if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
