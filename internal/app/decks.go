package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/swipedeck/internal/adapters/mq/queue"
	"github.com/okian/swipedeck/internal/domain/dedupe"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/domain/stack"
	"github.com/okian/swipedeck/internal/domain/types"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/okian/swipedeck/pkg/metrics"
)

type deck struct {
	id      string
	coord   *stack.Coordinator
	created time.Time

	left  atomic.Int64
	right atomic.Int64
	// applied counts gestures delivered to the stack, ignored ones included.
	applied atomic.Int64
}

// CreateDeck hosts a new deck loaded with items and returns its id.
func (s *Service) CreateDeck(ctx context.Context, items []model.CardItem) (string, error) {
	d := &deck{id: uuid.NewString(), created: s.clock.Now()}
	coord, err := stack.New(s.params,
		stack.WithDeckID(d.id),
		stack.WithClock(s.clock),
		stack.WithRemovalDelay(s.removalDelay),
		stack.WithDragIdleTimeout(s.idleTimeout),
		stack.WithAnimator(s.animator),
		stack.WithVisibleDepth(s.visibleDepth),
		stack.WithListener(func(dec model.Decision) { s.decided(d, dec) }),
		stack.WithLogger(s.logger.Named("stack")),
	)
	if err != nil {
		return "", err
	}
	if err := coord.SetItems(ctx, items); err != nil {
		return "", err
	}
	d.coord = coord

	s.mu.Lock()
	if s.maxDecks > 0 && len(s.decks) >= s.maxDecks {
		s.mu.Unlock()
		_ = coord.Close()
		return "", ErrTooManyDecks
	}
	s.decks[d.id] = d
	count := len(s.decks)
	s.mu.Unlock()

	metrics.UpdateActiveDecks(count)
	s.logger.Info(ctx, "deck created",
		logger.String("deck", d.id),
		logger.Int("cards", len(items)),
	)
	return d.id, nil
}

func (s *Service) decided(d *deck, dec model.Decision) {
	switch dec.Direction {
	case model.DirectionLeft:
		d.left.Add(1)
	case model.DirectionRight:
		d.right.Add(1)
	}
	s.logger.Info(context.Background(), "card swiped",
		logger.String("deck", dec.DeckID),
		logger.String("card", dec.CardID),
		logger.String("direction", dec.Direction.String()),
	)
}

func (s *Service) lookup(deckID string) (*deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
	}
	return d, nil
}

// SetItems replaces a deck's cards wholesale.
func (s *Service) SetItems(ctx context.Context, deckID string, items []model.CardItem) error {
	d, err := s.lookup(deckID)
	if err != nil {
		return err
	}
	return d.coord.SetItems(ctx, items)
}

// DeleteDeck stops hosting a deck. Pending removals are cancelled.
func (s *Service) DeleteDeck(ctx context.Context, deckID string) error {
	s.mu.Lock()
	d, ok := s.decks[deckID]
	if ok {
		delete(s.decks, deckID)
	}
	count := len(s.decks)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
	}

	_ = d.coord.Close()
	forgotten := s.deduper.Forget(ctx, dedupe.Key(deckID, ""))
	metrics.UpdateActiveDecks(count)
	s.logger.Info(ctx, "deck deleted",
		logger.String("deck", deckID),
		logger.Int("forgottenEvents", forgotten),
	)
	return nil
}

// Deck renders a deck for the presentation layer.
func (s *Service) Deck(_ context.Context, deckID string) (types.DeckView, error) {
	d, err := s.lookup(deckID)
	if err != nil {
		return types.DeckView{}, err
	}
	view := d.coord.View()
	view.SwipedLeft = d.left.Load()
	view.SwipedRight = d.right.Load()
	view.Applied = d.applied.Load()
	return view, nil
}

// Decks returns the ids of every hosted deck.
func (s *Service) Decks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.decks))
	for id := range s.decks {
		out = append(out, id)
	}
	return out
}

// SubmitGesture accepts a gesture for asynchronous delivery to its deck. It
// reports duplicate when the event id was already accepted for that deck.
func (s *Service) SubmitGesture(ctx context.Context, ev model.GestureEvent) (duplicate bool, err error) { //nolint:gocritic // hugeParam: events travel by value
	s.mu.RLock()
	started, pool := s.started, s.pool
	_, known := s.decks[ev.DeckID]
	s.mu.RUnlock()

	if !started {
		return false, ErrNotStarted
	}
	if !known {
		return false, fmt.Errorf("%w: %s", ErrDeckNotFound, ev.DeckID)
	}
	kind, err := model.ParseGestureKind(string(ev.Kind))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidGesture, err)
	}
	ev.Kind = kind
	if ev.TS.IsZero() {
		ev.TS = s.clock.Now()
	}

	var key string
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	} else {
		key = dedupe.Key(ev.DeckID, ev.EventID)
		if s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordGestureDuplicate()
			s.logger.Debug(ctx, "duplicate gesture, skipping",
				logger.String("deck", ev.DeckID),
				logger.String("eventID", ev.EventID),
			)
			return true, nil
		}
	}

	if err := pool.Enqueue(ctx, ev); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		if errors.Is(err, queue.ErrQueueFull) {
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return false, err
	}
	metrics.RecordGestureReceived(string(ev.Kind))
	return false, nil
}

// DispatchGesture applies ev to its deck. Pumps call it in per-deck order.
// Gestures that miss the top card are dropped without error.
func (s *Service) DispatchGesture(ctx context.Context, ev model.GestureEvent) error { //nolint:gocritic // hugeParam: events travel by value
	d, err := s.lookup(ev.DeckID)
	if err != nil {
		return err
	}

	err = d.coord.HandleGesture(ctx, ev)
	d.applied.Add(1)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stack.ErrEmptyStack):
		metrics.RecordGestureIgnored("empty_stack")
	case errors.Is(err, stack.ErrNotTopmost):
		metrics.RecordGestureIgnored("not_topmost")
	default:
		return err
	}
	s.logger.Debug(ctx, "gesture ignored",
		logger.String("deck", ev.DeckID),
		logger.String("card", ev.CardID),
		logger.String("eventID", ev.EventID),
		logger.Error(err),
	)
	return nil
}
