// Package swipesim drives a running swipedeck server with generated drag
// sequences and checks the resulting decks against an expected model.
package swipesim

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/swipedeck/internal/domain/model"
)

// Kind names a scripted interaction with the top card.
type Kind string

// Scenario kinds.
const (
	KindSwipeLeft   Kind = "swipe_left"
	KindSwipeRight  Kind = "swipe_right"
	KindShortDrag   Kind = "short_drag"
	KindTap         Kind = "tap"
	KindDownward    Kind = "downward"
	KindPointerLost Kind = "pointer_lost"
)

// Kinds lists every scenario the generator can emit.
var Kinds = []Kind{KindSwipeLeft, KindSwipeRight, KindShortDrag, KindTap, KindDownward, KindPointerLost}

// Gesture is one sample as posted to the gesture endpoint.
type Gesture struct {
	EventID      string  `json:"event_id"`
	CardID       string  `json:"card_id"`
	Kind         string  `json:"kind"`
	TranslationX float64 `json:"translation_x"`
	TranslationY float64 `json:"translation_y"`
}

// Scenario is the gesture script for one card and the decision it must
// produce. Expect is DirectionNone when the card should settle back.
type Scenario struct {
	Kind     Kind
	CardID   string
	Gestures []Gesture
	Expect   model.Direction
}

// Commits reports whether the scenario removes its card.
func (s Scenario) Commits() bool { return s.Expect != model.DirectionNone }

// Generator builds scenarios for a viewport width. It is not safe for
// concurrent use; give each deck its own.
type Generator struct {
	width float64
	steps int
	rng   *rand.Rand
}

// NewGenerator returns a Generator seeded with (seed, stream). Equal seeds
// produce equal scenario sequences.
func NewGenerator(width float64, steps int, seed, stream uint64) *Generator {
	if steps < 1 {
		steps = 1
	}
	return &Generator{width: width, steps: steps, rng: rand.New(rand.NewPCG(seed, stream))}
}

// Next picks a random scenario for cardID.
func (g *Generator) Next(cardID string) Scenario {
	return g.Build(Kinds[g.rng.IntN(len(Kinds))], cardID)
}

// Build scripts kind against cardID.
func (g *Generator) Build(kind Kind, cardID string) Scenario {
	sc := Scenario{Kind: kind, CardID: cardID}
	// Committing drags land in (0.6w, 1.2w), non-committing ones stay under
	// 0.4w, so no scenario sits near the threshold.
	far := g.width * (0.6 + 0.6*g.rng.Float64())
	near := g.width * 0.4 * g.rng.Float64()
	lift := -g.width * 0.3 * g.rng.Float64()

	switch kind {
	case KindSwipeLeft:
		sc.Gestures = g.drag(cardID, -far, lift, model.GestureEnd)
		sc.Expect = model.DirectionLeft
	case KindSwipeRight:
		sc.Gestures = g.drag(cardID, far, lift, model.GestureEnd)
		sc.Expect = model.DirectionRight
	case KindShortDrag:
		if g.rng.IntN(2) == 0 {
			near = -near
		}
		sc.Gestures = g.drag(cardID, near, lift, model.GestureEnd)
	case KindTap:
		sc.Gestures = []Gesture{
			g.sample(cardID, model.GestureStart, 0, 0),
			g.sample(cardID, model.GestureEnd, 0, 0),
		}
	case KindDownward:
		// Downward movement is clamped, so only the small horizontal part
		// counts.
		sc.Gestures = g.drag(cardID, near/2, g.width*(0.5+g.rng.Float64()), model.GestureEnd)
	case KindPointerLost:
		if g.rng.IntN(2) == 0 {
			far = -far
			sc.Expect = model.DirectionLeft
		} else {
			sc.Expect = model.DirectionRight
		}
		sc.Gestures = g.drag(cardID, far, lift, model.GestureCancel)
	}
	return sc
}

// drag interpolates from the origin to (dx, dy) and finishes with last.
func (g *Generator) drag(cardID string, dx, dy float64, last model.GestureKind) []Gesture {
	out := make([]Gesture, 0, g.steps+2)
	out = append(out, g.sample(cardID, model.GestureStart, 0, 0))
	for i := 1; i <= g.steps; i++ {
		f := float64(i) / float64(g.steps)
		out = append(out, g.sample(cardID, model.GestureUpdate, dx*f, dy*f))
	}
	return append(out, g.sample(cardID, last, dx, dy))
}

func (g *Generator) sample(cardID string, kind model.GestureKind, tx, ty float64) Gesture {
	return Gesture{
		EventID:      uuid.NewString(),
		CardID:       cardID,
		Kind:         string(kind),
		TranslationX: tx,
		TranslationY: ty,
	}
}
