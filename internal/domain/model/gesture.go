// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// GestureKind classifies an input event of a single-pointer drag.
type GestureKind string

// Gesture kinds delivered by the host input system.
const (
	GestureStart  GestureKind = "start"
	GestureUpdate GestureKind = "update"
	GestureEnd    GestureKind = "end"
	// GestureCancel means the pointer was lost without a clean end.
	GestureCancel GestureKind = "cancel"
)

// ParseGestureKind accepts the wire spelling of a gesture kind.
func ParseGestureKind(s string) (GestureKind, error) {
	switch k := GestureKind(strings.ToLower(strings.TrimSpace(s))); k {
	case GestureStart, GestureUpdate, GestureEnd, GestureCancel:
		return k, nil
	default:
		return "", fmt.Errorf("unknown gesture kind %q", s)
	}
}

// GestureSample is the pointer translation relative to where the drag started.
type GestureSample struct {
	TranslationX float64
	TranslationY float64
}

// GestureEvent is one element of a drag stream.
type GestureEvent struct {
	EventID string // unique id for idempotent delivery
	DeckID  string // deck the gesture targets
	CardID  string // optional; when set it must name the topmost card
	Kind    GestureKind
	Sample  GestureSample // meaningful for update events
	TS      time.Time
}
