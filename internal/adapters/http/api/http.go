// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/domain/types"
	"github.com/okian/swipedeck/pkg/logger"
)

// maxBodyBytes caps request bodies. A deck of a few thousand cards fits.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateDeck(ctx context.Context, items []model.CardItem) (string, error)
	SetItems(ctx context.Context, deckID string, items []model.CardItem) error
	DeleteDeck(ctx context.Context, deckID string) error
	Deck(ctx context.Context, deckID string) (types.DeckView, error)

	// SubmitGesture queues a gesture for its deck. duplicate is true when the
	// event id was already accepted.
	SubmitGesture(ctx context.Context, ev model.GestureEvent) (duplicate bool, err error)
}

// Server wires HTTP routes for the deck API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	decksHandler   *DecksHandler
	gestureHandler *GestureHandler
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Get().Named("api")
	}
	v := validator.New()
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		decksHandler:   NewDecksHandler(deps, v),
		gestureHandler: NewGestureHandler(deps, v),
		logger:         log,
	}
}

// Router returns a chi router with every route registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/decks", func(r chi.Router) {
		r.Post("/", MetricsMiddleware(s.decksHandler.HandleCreate, "decks"))
		r.Route("/{deckID}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.decksHandler.HandleGet, "deck"))
			r.Delete("/", MetricsMiddleware(s.decksHandler.HandleDelete, "deck"))
			r.Put("/items", MetricsMiddleware(s.decksHandler.HandleSetItems, "items"))
			r.Post("/gestures", MetricsMiddleware(s.gestureHandler.HandlePostGesture, "gestures"))
		})
	})
	return r
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeJSON reads a size-capped JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error response.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
