package service

import "errors"

var (
	// ErrDeckNotFound is returned for an unknown deck id.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrTooManyDecks is returned by CreateDeck once the deck limit is reached.
	ErrTooManyDecks = errors.New("too many decks")
	// ErrBackpressure is returned when a gesture queue is full.
	ErrBackpressure = errors.New("gesture queue is full")
	// ErrNotStarted is returned when gestures arrive before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidGesture is returned for a gesture with an unknown kind.
	ErrInvalidGesture = errors.New("invalid gesture")
)
