package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/okian/swipedeck/internal/domain/model"
)

type cardRequest struct {
	ID       string `json:"id" validate:"required"`
	ImageRef string `json:"image_ref"`
}

type itemsRequest struct {
	Items []cardRequest `json:"items" validate:"dive"`
}

func (r itemsRequest) cards() []model.CardItem {
	out := make([]model.CardItem, len(r.Items))
	for i, it := range r.Items {
		out[i] = model.CardItem{ID: it.ID, ImageRef: it.ImageRef}
	}
	return out
}

type createResponse struct {
	DeckID string `json:"deck_id"`
}

// DecksHandler serves deck lifecycle routes.
type DecksHandler struct {
	deps     Dependencies
	validate *validator.Validate
}

// NewDecksHandler creates a new decks handler.
func NewDecksHandler(deps Dependencies, v *validator.Validate) *DecksHandler {
	return &DecksHandler{deps: deps, validate: v}
}

// HandleCreate handles POST /decks.
func (h *DecksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeFailure(w, err)
		return
	}
	id, err := h.deps.CreateDeck(r.Context(), req.cards())
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Location", "/decks/"+id)
	writeJSON(w, http.StatusCreated, createResponse{DeckID: id})
}

// HandleSetItems handles PUT /decks/{deckID}/items.
func (h *DecksHandler) HandleSetItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.SetItems(r.Context(), chi.URLParam(r, "deckID"), req.cards()); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /decks/{deckID}.
func (h *DecksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Deck(r.Context(), chi.URLParam(r, "deckID"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /decks/{deckID}.
func (h *DecksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteDeck(r.Context(), chi.URLParam(r, "deckID")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
