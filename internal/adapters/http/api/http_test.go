package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/swipedeck/internal/adapters/http/api"
	service "github.com/okian/swipedeck/internal/app"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/domain/stack"
	"github.com/okian/swipedeck/internal/domain/types"
	"github.com/okian/swipedeck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies keeps decks in memory and records submitted gestures.
type mockDependencies struct {
	mu       sync.Mutex
	decks    map[string][]model.CardItem
	seen     map[string]bool
	gestures []model.GestureEvent
	next     int

	submitErr error
	createErr error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		decks: make(map[string][]model.CardItem),
		seen:  make(map[string]bool),
	}
}

func (m *mockDependencies) CreateDeck(_ context.Context, items []model.CardItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	for _, it := range items {
		if it.ID == "" {
			return "", stack.ErrInvalidItem
		}
	}
	m.next++
	id := fmt.Sprintf("deck-%d", m.next)
	m.decks[id] = items
	return id, nil
}

func (m *mockDependencies) SetItems(_ context.Context, deckID string, items []model.CardItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.decks[deckID]; !ok {
		return fmt.Errorf("%w: %s", service.ErrDeckNotFound, deckID)
	}
	seen := make(map[string]bool)
	for _, it := range items {
		if seen[it.ID] {
			return stack.ErrDuplicateItem
		}
		seen[it.ID] = true
	}
	m.decks[deckID] = items
	return nil
}

func (m *mockDependencies) DeleteDeck(_ context.Context, deckID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.decks[deckID]; !ok {
		return fmt.Errorf("%w: %s", service.ErrDeckNotFound, deckID)
	}
	delete(m.decks, deckID)
	return nil
}

func (m *mockDependencies) Deck(_ context.Context, deckID string) (types.DeckView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.decks[deckID]
	if !ok {
		return types.DeckView{}, fmt.Errorf("%w: %s", service.ErrDeckNotFound, deckID)
	}
	view := types.DeckView{DeckID: deckID, Size: len(items)}
	for i, it := range items {
		view.Layers = append(view.Layers, types.Layer{
			ID: it.ID, ImageRef: it.ImageRef, Index: i, Interactive: i == len(items)-1, Phase: "resting",
		})
	}
	if len(items) > 0 {
		view.TopID = items[len(items)-1].ID
	}
	return view, nil
}

func (m *mockDependencies) SubmitGesture(_ context.Context, ev model.GestureEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return false, m.submitErr
	}
	if _, ok := m.decks[ev.DeckID]; !ok {
		return false, fmt.Errorf("%w: %s", service.ErrDeckNotFound, ev.DeckID)
	}
	key := ev.DeckID + "/" + ev.EventID
	if ev.EventID != "" && m.seen[key] {
		return true, nil
	}
	m.seen[key] = true
	m.gestures = append(m.gestures, ev)
	return false, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over mock dependencies", t, func() {
		deps := newMockDependencies()
		stats := &mockStatsProvider{stats: map[string]interface{}{"decks": 0}}
		h := api.NewServer(deps, stats, logger.NewNop()).Router()

		Convey("The health endpoint reports ok", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("The metrics endpoint serves Prometheus text", func() {
			do(h, http.MethodGet, "/healthz", "")
			w := do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "swipedeck_engine_http_requests_total")
		})

		Convey("The stats endpoint returns provider stats", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var got map[string]interface{}
			decode(w, &got)
			So(got["decks"], ShouldEqual, float64(0))
		})

		Convey("Unknown routes return 404", func() {
			w := do(h, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When creating a deck", func() {
			w := do(h, http.MethodPost, "/decks", `{"items":[{"id":"a","image_ref":"a.png"},{"id":"b","image_ref":"b.png"}]}`)

			Convey("Then it is created with an id", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var got struct {
					DeckID string `json:"deck_id"`
				}
				decode(w, &got)
				So(got.DeckID, ShouldEqual, "deck-1")
				So(w.Header().Get("Location"), ShouldEqual, "/decks/deck-1")
			})

			Convey("And it can be read back", func() {
				r := do(h, http.MethodGet, "/decks/deck-1", "")
				So(r.Code, ShouldEqual, http.StatusOK)
				var view types.DeckView
				decode(r, &view)
				So(view.Size, ShouldEqual, 2)
				So(view.TopID, ShouldEqual, "b")
				So(view.Layers, ShouldHaveLength, 2)
				So(view.Layers[1].Interactive, ShouldBeTrue)
			})

			Convey("And its items can be replaced", func() {
				r := do(h, http.MethodPut, "/decks/deck-1/items", `{"items":[{"id":"z"}]}`)
				So(r.Code, ShouldEqual, http.StatusNoContent)
				So(deps.decks["deck-1"], ShouldResemble, []model.CardItem{{ID: "z"}})
			})

			Convey("And duplicate items are rejected", func() {
				r := do(h, http.MethodPut, "/decks/deck-1/items", `{"items":[{"id":"z"},{"id":"z"}]}`)
				So(r.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And it can be deleted once", func() {
				So(do(h, http.MethodDelete, "/decks/deck-1", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(h, http.MethodDelete, "/decks/deck-1", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodGet, "/decks/deck-1", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("Creating a deck with bad input fails", func() {
			So(do(h, http.MethodPost, "/decks", `{`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/decks", `{"items":[{"image_ref":"x"}]}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/decks", `{"cards":[]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Deck capacity maps to 429", func() {
			deps.createErr = service.ErrTooManyDecks
			w := do(h, http.MethodPost, "/decks", `{"items":[]}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, "too_many_decks")
		})

		Convey("Setting items on an unknown deck is 404", func() {
			w := do(h, http.MethodPut, "/decks/nope/items", `{"items":[]}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "not_found")
		})
	})
}

func TestServer_Gestures(t *testing.T) {
	Convey("Given a deck behind the API", t, func() {
		deps := newMockDependencies()
		h := api.NewServer(deps, &mockStatsProvider{}, logger.NewNop()).Router()
		id, err := deps.CreateDeck(context.Background(), []model.CardItem{{ID: "a"}})
		So(err, ShouldBeNil)
		path := "/decks/" + id + "/gestures"

		Convey("When a gesture is posted", func() {
			w := do(h, http.MethodPost, path,
				`{"event_id":"e1","card_id":"a","kind":"update","translation_x":120.5,"translation_y":-8,"ts":"2024-05-01T10:00:00.250Z"}`)

			Convey("Then it is accepted and forwarded", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
				So(deps.gestures, ShouldHaveLength, 1)
				ev := deps.gestures[0]
				So(ev.DeckID, ShouldEqual, id)
				So(ev.CardID, ShouldEqual, "a")
				So(ev.Kind, ShouldEqual, model.GestureUpdate)
				So(ev.Sample.TranslationX, ShouldEqual, 120.5)
				So(ev.Sample.TranslationY, ShouldEqual, -8)
				So(ev.TS.IsZero(), ShouldBeFalse)
			})

			Convey("And a replay is reported as duplicate", func() {
				r := do(h, http.MethodPost, path, `{"event_id":"e1","kind":"update"}`)
				So(r.Code, ShouldEqual, http.StatusOK)
				So(r.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(deps.gestures, ShouldHaveLength, 1)
			})
		})

		Convey("Invalid gestures are rejected", func() {
			cases := []struct {
				name string
				body string
			}{
				{"missing kind", `{"event_id":"e1"}`},
				{"unknown kind", `{"event_id":"e1","kind":"fling"}`},
				{"bad timestamp", `{"event_id":"e1","kind":"start","ts":"yesterday"}`},
				{"wrong type", `{"event_id":"e1","kind":"start","translation_x":"far"}`},
			}
			for _, tc := range cases {
				w := do(h, http.MethodPost, path, tc.body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.gestures, ShouldBeEmpty)
		})

		Convey("Gestures for an unknown deck are 404", func() {
			w := do(h, http.MethodPost, "/decks/missing/gestures", `{"kind":"start"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Backpressure maps to 429", func() {
			deps.submitErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			w := do(h, http.MethodPost, path, `{"event_id":"e2","kind":"start"}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, "backpressure")
		})

		Convey("A stopped service maps to 503", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(h, http.MethodPost, path, `{"kind":"start"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Unexpected failures map to 500", func() {
			deps.submitErr = fmt.Errorf("disk on fire")
			w := do(h, http.MethodPost, path, `{"kind":"start"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "internal")
		})
	})
}
