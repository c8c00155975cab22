package api

import (
	"errors"
	"net/http"

	"github.com/okian/swipedeck/internal/adapters/mq/worker"
	service "github.com/okian/swipedeck/internal/app"
	"github.com/okian/swipedeck/internal/domain/stack"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// classify maps an upstream error to a status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidGesture),
		errors.Is(err, stack.ErrInvalidItem),
		errors.Is(err, stack.ErrDuplicateItem):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrDeckNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrTooManyDecks):
		return http.StatusTooManyRequests, "too_many_decks"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, worker.ErrPoolStopped):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
