package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/swipedeck/internal/config"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func setEnv(kv map[string]string) func() {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	}
}

func TestMainComponents(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		restore := setEnv(map[string]string{
			"SWIPEDECK_ADDR":             ":8081",
			"SWIPEDECK_QUEUE_SIZE":       "64",
			"SWIPEDECK_WORKER_COUNT":     "2",
			"SWIPEDECK_VIEWPORT_WIDTH":   "300",
			"SWIPEDECK_REMOVAL_DELAY_MS": "10",
			"SWIPEDECK_FRAME_RATE":       "120",
			"SWIPEDECK_MAX_DECKS":        "3",
		})
		defer restore()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8081")

		convey.Convey("When the service is built from it", func() {
			svc := newService(cfg, logger.NewNop())
			stats := svc.GetStats()

			convey.Convey("Then the settings are applied", func() {
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["queueSize"], convey.ShouldEqual, 64)
				convey.So(stats["frameRate"], convey.ShouldEqual, 120)
				convey.So(stats["removalDelay"], convey.ShouldEqual, "10ms")
				convey.So(stats["dragIdle"], convey.ShouldEqual, "5s")
				convey.So(stats["started"], convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the HTTP server is built", func() {
			svc := newService(cfg, logger.NewNop())
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			srv := newHTTPServer(cfg, svc, logger.NewNop())
			convey.So(srv.Addr, convey.ShouldEqual, ":8081")
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

			convey.Convey("Then its handler serves the deck API", func() {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/decks", strings.NewReader(`{"items":[{"id":"a"},{"id":"b"}]}`))
				srv.Handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)

				var created struct {
					DeckID string `json:"deck_id"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &created), convey.ShouldBeNil)
				convey.So(created.DeckID, convey.ShouldNotBeEmpty)

				w = httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decks/"+created.DeckID, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"top_id":"b"`)

				w = httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})

	convey.Convey("Given an invalid address", t, func() {
		restore := setEnv(map[string]string{"SWIPEDECK_ADDR": ""})
		defer restore()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		convey.Convey("They return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			svc := newService(config.New(), logger.NewNop())

			done := make(chan struct{})
			go func() {
				defer close(done)
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("metrics updaters did not stop")
			}
		})

		convey.Convey("Single updates do not panic", func() {
			svc := newService(config.New(), logger.NewNop())
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
