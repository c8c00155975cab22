package swipesim

import (
	"testing"

	"github.com/okian/swipedeck/internal/domain/card"
	"github.com/okian/swipedeck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// finalDecision replays a script through the card reducer the way a
// controller would and returns the decision.
func finalDecision(p card.Params, gestures []Gesture) model.Direction {
	m := card.Machine{}
	for _, g := range gestures {
		var ev card.Event
		switch model.GestureKind(g.Kind) {
		case model.GestureStart:
			ev = card.Event{Kind: card.EventGestureStart}
		case model.GestureUpdate:
			ev = card.Event{Kind: card.EventGestureUpdate, Sample: model.GestureSample{TranslationX: g.TranslationX, TranslationY: g.TranslationY}}
		case model.GestureEnd:
			ev = card.Event{Kind: card.EventGestureEnd}
		case model.GestureCancel:
			ev = card.Event{Kind: card.EventGestureLost}
		}
		m, _ = card.Reduce(p, m, ev)
	}
	return m.Decision
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator for a 390pt viewport", t, func() {
		params := card.DefaultParams(390)
		gen := NewGenerator(390, 5, 7, 0)

		Convey("Every kind produces a well formed script", func() {
			for _, kind := range Kinds {
				sc := gen.Build(kind, "c1")
				So(sc.Kind, ShouldEqual, kind)
				So(len(sc.Gestures), ShouldBeGreaterThanOrEqualTo, 2)
				So(sc.Gestures[0].Kind, ShouldEqual, string(model.GestureStart))

				last := sc.Gestures[len(sc.Gestures)-1].Kind
				if kind == KindPointerLost {
					So(last, ShouldEqual, string(model.GestureCancel))
				} else {
					So(last, ShouldEqual, string(model.GestureEnd))
				}

				ids := make(map[string]bool)
				for _, g := range sc.Gestures {
					So(g.CardID, ShouldEqual, "c1")
					So(ids[g.EventID], ShouldBeFalse)
					ids[g.EventID] = true
				}
			}
		})

		Convey("The expected decision matches the reducer", func() {
			for i := 0; i < 200; i++ {
				sc := gen.Next("c1")
				So(finalDecision(params, sc.Gestures), ShouldEqual, sc.Expect)
			}
		})

		Convey("Directional swipes commit the way they are named", func() {
			So(gen.Build(KindSwipeLeft, "c").Expect, ShouldEqual, model.DirectionLeft)
			So(gen.Build(KindSwipeRight, "c").Expect, ShouldEqual, model.DirectionRight)
			So(gen.Build(KindTap, "c").Commits(), ShouldBeFalse)
			So(gen.Build(KindDownward, "c").Commits(), ShouldBeFalse)
			So(gen.Build(KindShortDrag, "c").Commits(), ShouldBeFalse)
			So(gen.Build(KindPointerLost, "c").Commits(), ShouldBeTrue)
		})

		Convey("Equal seeds give equal sequences", func() {
			a := NewGenerator(390, 3, 42, 1)
			b := NewGenerator(390, 3, 42, 1)
			for i := 0; i < 20; i++ {
				sa, sb := a.Next("x"), b.Next("x")
				So(sa.Kind, ShouldEqual, sb.Kind)
				So(sa.Gestures[len(sa.Gestures)-1].TranslationX, ShouldEqual, sb.Gestures[len(sb.Gestures)-1].TranslationX)
			}
		})
	})
}
