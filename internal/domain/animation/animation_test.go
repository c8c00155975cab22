package animation_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	. "github.com/smartystreets/goconvey/convey"
)

const frame = time.Second / 60

// runUntilDone advances a until it finishes or limit elapses, returning the
// animated time it took.
func runUntilDone(a animation.Animation, f *animation.Frame, limit time.Duration) (time.Duration, bool) {
	var elapsed time.Duration
	for elapsed <= limit {
		if a.Advance(frame, f) {
			return elapsed, true
		}
		elapsed += frame
	}
	return elapsed, false
}

func TestSpring(t *testing.T) {
	Convey("Given a settle spring", t, func() {
		a := animation.NewStandard()

		Convey("When the card is displaced", func() {
			f := animation.Frame{X: 150, Y: -40, Rotation: 15}
			s := a.Settle(f)

			took, done := runUntilDone(s, &f, 10*time.Second)

			Convey("Then it should converge to exactly zero", func() {
				So(done, ShouldBeTrue)
				So(f, ShouldResemble, animation.Frame{})
				So(took, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the card is already at rest", func() {
			f := animation.Frame{}
			s := a.Settle(f)

			Convey("Then a zero-length advance should finish it", func() {
				So(s.Advance(0, &f), ShouldBeTrue)
				So(f, ShouldResemble, animation.Frame{})
			})
		})

		Convey("When time is sliced differently", func() {
			fine := animation.Frame{X: 80}
			coarse := animation.Frame{X: 80}
			sf := animation.NewSpring(animation.DefaultSpringConfig())
			sc := animation.NewSpring(animation.DefaultSpringConfig())

			for i := 0; i < 30; i++ {
				sf.Advance(frame, &fine)
			}
			for i := 0; i < 10; i++ {
				sc.Advance(3*frame, &coarse)
			}

			Convey("Then fixed-step integration should give the same position", func() {
				So(math.Abs(fine.X-coarse.X), ShouldBeLessThan, 1e-9)
			})
		})

		Convey("When a stiffer spring is configured", func() {
			stiff := animation.NewStandard(animation.WithSpring(animation.SpringConfig{AngularFrequency: 30, DampingRatio: 1}))
			f1 := animation.Frame{X: 200}
			f2 := animation.Frame{X: 200}

			slowTook, _ := runUntilDone(a.Settle(f1), &f1, 10*time.Second)
			fastTook, _ := runUntilDone(stiff.Settle(f2), &f2, 10*time.Second)

			Convey("Then it should settle sooner", func() {
				So(fastTook, ShouldBeLessThan, slowTook)
			})
		})
	})
}

func TestTiming(t *testing.T) {
	Convey("Given an exit tween", t, func() {
		a := animation.NewStandard()
		f := animation.Frame{X: 250, Y: -10, Rotation: 25}
		exit := a.Exit(f, 800, 400*time.Millisecond)

		Convey("When half the duration has passed", func() {
			done := exit.Advance(200*time.Millisecond, &f)

			Convey("Then X should be halfway and other components untouched", func() {
				So(done, ShouldBeFalse)
				So(f.X, ShouldAlmostEqual, 525, 1e-9)
				So(f.Y, ShouldEqual, -10)
				So(f.Rotation, ShouldEqual, 25)
			})
		})

		Convey("When the full duration has passed", func() {
			_ = exit.Advance(300*time.Millisecond, &f)
			done := exit.Advance(100*time.Millisecond, &f)

			Convey("Then it should land exactly on the target", func() {
				So(done, ShouldBeTrue)
				So(f.X, ShouldEqual, 800)
			})
		})

		Convey("When X moves monotonically", func() {
			prev := f.X
			monotonic := true
			for i := 0; i < 30; i++ {
				exit.Advance(frame, &f)
				if f.X < prev {
					monotonic = false
				}
				prev = f.X
			}

			Convey("Then it should never move backwards", func() {
				So(monotonic, ShouldBeTrue)
			})
		})
	})

	Convey("Given a zero-duration tween", t, func() {
		f := animation.Frame{X: 10}
		tw := animation.NewTiming(10, -500, 0, nil)

		Convey("Then it should jump to the target", func() {
			So(tw.Advance(0, &f), ShouldBeTrue)
			So(f.X, ShouldEqual, -500)
		})
	})
}

func TestEasing(t *testing.T) {
	Convey("Given the easing curves", t, func() {
		So(animation.EaseInOutQuad(0), ShouldEqual, 0)
		So(animation.EaseInOutQuad(0.5), ShouldEqual, 0.5)
		So(animation.EaseInOutQuad(1), ShouldEqual, 1)
		So(animation.EaseInOutQuad(0.25), ShouldBeLessThan, 0.25)
		So(animation.Linear(0.3), ShouldEqual, 0.3)
	})
}
