package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/okian/swipedeck/internal/domain/model"
)

// gestureRequest is one pointer sample. translation_x and translation_y are
// cumulative offsets from where the drag began.
type gestureRequest struct {
	EventID      string  `json:"event_id"`
	CardID       string  `json:"card_id"`
	Kind         string  `json:"kind" validate:"required,oneof=start update end cancel"`
	TranslationX float64 `json:"translation_x"`
	TranslationY float64 `json:"translation_y"`
	TS           string  `json:"ts" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (g gestureRequest) event(deckID string) model.GestureEvent {
	ev := model.GestureEvent{
		EventID: g.EventID,
		DeckID:  deckID,
		CardID:  g.CardID,
		Kind:    model.GestureKind(g.Kind),
		Sample:  model.GestureSample{TranslationX: g.TranslationX, TranslationY: g.TranslationY},
	}
	if g.TS != "" {
		// Already validated as RFC3339.
		ev.TS, _ = time.Parse(time.RFC3339, g.TS)
	}
	return ev
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// GestureHandler accepts gesture samples for asynchronous delivery.
type GestureHandler struct {
	deps     Dependencies
	validate *validator.Validate
}

// NewGestureHandler creates a new gesture handler.
func NewGestureHandler(deps Dependencies, v *validator.Validate) *GestureHandler {
	return &GestureHandler{deps: deps, validate: v}
}

// HandlePostGesture handles POST /decks/{deckID}/gestures.
func (h *GestureHandler) HandlePostGesture(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeFailure(w, err)
		return
	}

	duplicate, err := h.deps.SubmitGesture(r.Context(), req.event(chi.URLParam(r, "deckID")))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
