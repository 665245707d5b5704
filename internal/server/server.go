// Package server exposes the store over a read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/store"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// Server serves stored bars, indicator rows and strategy results. It
// never writes; the orchestrator is the only writer.
type Server struct {
	store  store.Store
	logger *logger.Logger
	http   *http.Server
}

// New builds the server and its route table.
func New(st store.Store, listen string, log *logger.Logger) *Server {
	s := &Server{
		store:  st,
		logger: log.Named("server"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/bars/{code}", s.handleBars).Methods(http.MethodGet)
	r.HandleFunc("/api/indicators/{code}/{date}", s.handleIndicators).Methods(http.MethodGet)
	r.HandleFunc("/api/results/{date}", s.handleResults).Methods(http.MethodGet)
	r.HandleFunc("/api/matches/{date}", s.handleMatches).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:              listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("serving query API", zap.String("listen", s.http.Addr))

	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidDate, errors.ErrCodeInvalidParameter:
		status = http.StatusBadRequest
	case errors.ErrCodeStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseDateVar(r *http.Request) (types.TradingDate, error) {
	return types.ParseTradingDate(mux.Vars(r)["date"])
}

// handleBars returns one instrument's bars, optionally bounded by
// ?from= and ?to= (inclusive, default all history).
func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	from := types.NewTradingDate(1970, time.January, 1)
	to := types.DateOf(time.Now())

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = types.ParseTradingDate(v); err != nil {
			s.writeError(w, err)

			return
		}
	}

	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = types.ParseTradingDate(v); err != nil {
			s.writeError(w, err)

			return
		}
	}

	bars, err := s.store.GetBars(r.Context(), code, from, to)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if bars == nil {
		bars = []types.Bar{}
	}

	s.writeJSON(w, http.StatusOK, bars)
}

// indicatorRowResponse flattens an indicator row for JSON: undefined
// values are rendered as null, never as zero.
type indicatorRowResponse struct {
	Code   string              `json:"code"`
	Date   types.TradingDate   `json:"date"`
	Values map[string]*float64 `json:"values"`
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	date, err := parseDateVar(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	row, err := s.store.GetIndicators(r.Context(), code, date)
	if err != nil {
		s.writeError(w, err)

		return
	}

	resp := indicatorRowResponse{
		Code:   row.Code,
		Date:   row.Date,
		Values: make(map[string]*float64, len(row.Values)),
	}
	for _, name := range row.Names() {
		if v, takeErr := row.Values[name].Take(); takeErr == nil {
			value := v
			resp.Values[name] = &value
		} else {
			resp.Values[name] = nil
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateVar(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	results, err := s.store.GetStrategyResults(r.Context(), date, r.URL.Query().Get("strategy"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	if results == nil {
		results = []types.StrategyResult{}
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateVar(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	matches, err := s.store.ListMatches(r.Context(), date)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if matches == nil {
		matches = []types.StrategyResult{}
	}

	s.writeJSON(w, http.StatusOK, matches)
}
