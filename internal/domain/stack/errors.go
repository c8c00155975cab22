package stack

import "errors"

var (
	// ErrInvalidItem is returned by SetItems for an item without an id.
	ErrInvalidItem = errors.New("invalid card item")
	// ErrDuplicateItem is returned by SetItems when two items share an id.
	ErrDuplicateItem = errors.New("duplicate card id")
	// ErrEmptyStack is returned when a gesture arrives for a deck with no cards.
	ErrEmptyStack = errors.New("stack is empty")
	// ErrNotTopmost is returned when a gesture names a card that is not on top.
	ErrNotTopmost = errors.New("card is not topmost")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("coordinator is closed")
)
