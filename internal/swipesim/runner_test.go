package swipesim_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/swipedeck/internal/adapters/http/api"
	service "github.com/okian/swipedeck/internal/app"
	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/card"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/swipesim"
	"github.com/okian/swipedeck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	spring := animation.DefaultSpringConfig()
	spring.AngularFrequency = 40
	spring.DampingRatio = 1

	svc := service.New(
		service.WithCardParams(card.DefaultParams(300)),
		service.WithSpring(spring),
		service.WithRemovalDelay(20*time.Millisecond),
		service.WithFrameRate(120),
		service.WithWorkerCount(2),
		service.WithLogger(logger.NewNop()),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc, svc, logger.NewNop()).Router())
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRunnerAgainstServer(t *testing.T) {
	srv := newServer(t)
	client := swipesim.NewClient(srv.URL, srv.Client())

	Convey("Given a live deck server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		Convey("The client reports the server's viewport width", func() {
			w, err := client.ViewportWidth(ctx)
			So(err, ShouldBeNil)
			So(w, ShouldEqual, 300)
		})

		Convey("A simulated run matches the model", func() {
			runner := swipesim.NewRunner(client,
				swipesim.WithDecks(3),
				swipesim.WithCards(4),
				swipesim.WithSteps(8),
				swipesim.WithDragSteps(3),
				swipesim.WithSeed(11),
				swipesim.WithPollInterval(5*time.Millisecond),
				swipesim.WithLogger(logger.NewNop()),
			)
			report, err := runner.Run(ctx)
			So(err, ShouldBeNil)
			So(report.Mismatches, ShouldBeEmpty)
			So(report.OK(), ShouldBeTrue)
			So(report.Decks, ShouldEqual, 3)
			So(report.Gestures, ShouldBeGreaterThan, 0)
			So(report.Commits, ShouldBeLessThanOrEqualTo, 12)
		})

		Convey("Replayed gestures are reported as duplicates", func() {
			runner := swipesim.NewRunner(client,
				swipesim.WithDecks(1),
				swipesim.WithCards(2),
				swipesim.WithSteps(3),
				swipesim.WithWidth(300),
				swipesim.WithReplay(true),
				swipesim.WithPollInterval(5*time.Millisecond),
				swipesim.WithLogger(logger.NewNop()),
			)
			report, err := runner.Run(ctx)
			So(err, ShouldBeNil)
			So(report.OK(), ShouldBeTrue)
			So(report.Duplicates, ShouldEqual, report.Gestures)
		})

		Convey("The client surfaces API errors", func() {
			_, err := client.Deck(ctx, "missing")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "404")

			id, err := client.CreateDeck(ctx, []model.CardItem{{ID: "a"}})
			So(err, ShouldBeNil)
			dup, err := client.Gesture(ctx, id, swipesim.Gesture{EventID: "e1", Kind: "start"})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			dup, err = client.Gesture(ctx, id, swipesim.Gesture{EventID: "e1", Kind: "start"})
			So(err, ShouldBeNil)
			So(dup, ShouldBeTrue)
			So(client.DeleteDeck(ctx, id), ShouldBeNil)
			So(client.DeleteDeck(ctx, id), ShouldNotBeNil)
		})
	})
}

func TestClientBackpressure(t *testing.T) {
	Convey("Given a server that always pushes back", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()
		client := swipesim.NewClient(srv.URL+"/", nil)

		Convey("Gestures fail with ErrBackpressure", func() {
			_, err := client.Gesture(context.Background(), "d", swipesim.Gesture{Kind: "start"})
			So(errors.Is(err, swipesim.ErrBackpressure), ShouldBeTrue)
		})
	})
}
