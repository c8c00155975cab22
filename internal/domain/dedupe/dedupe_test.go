package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/swipedeck/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When an event is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "evt-1")
			second := d.SeenAndRecord(ctx, "evt-1")

			Convey("Then only the second delivery is a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an event is unrecorded", func() {
			d.SeenAndRecord(ctx, "evt-1")
			d.Unrecord(ctx, "evt-1")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it may be delivered again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "evt-1"), ShouldBeFalse)
			})
		})

		Convey("When two decks reuse an event id", func() {
			a := d.SeenAndRecord(ctx, dedupe.Key("deck-a", "1"))
			b := d.SeenAndRecord(ctx, dedupe.Key("deck-b", "1"))

			Convey("Then they do not collide", func() {
				So(a, ShouldBeFalse)
				So(b, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When a deck is forgotten", func() {
			for i := 0; i < 3; i++ {
				d.SeenAndRecord(ctx, dedupe.Key("deck-a", fmt.Sprint(i)))
			}
			d.SeenAndRecord(ctx, dedupe.Key("deck-b", "0"))
			n := d.Forget(ctx, dedupe.Key("deck-a", ""))

			Convey("Then only its ids are dropped", func() {
				So(n, ShouldEqual, 3)
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, dedupe.Key("deck-b", "0")), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, dedupe.Key("deck-a", "0")), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"e1", "e2", "e3", "e4"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("Then the oldest id is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "e4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "e3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "e1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const n = 1000
		for i := 0; i < n; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, n)
			So(d.SeenAndRecord(ctx, "evt-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by several goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10000))
		const workers, perWorker = 10, 100

		Convey("When they all record the same ids", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("evt-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is new exactly once", func() {
				So(fresh, ShouldEqual, perWorker)
				So(d.Size(), ShouldEqual, perWorker)
			})
		})
	})
}
