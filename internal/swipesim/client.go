package swipesim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/domain/types"
)

// ErrBackpressure is returned when the server rejects a gesture with 429.
var ErrBackpressure = errors.New("server backpressure")

// Client talks to the deck API over HTTP. All requests are JSON; non-2xx
// statuses come back as errors carrying the method, URL and status.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a Client for the server at base.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// CreateDeck uploads items and returns the new deck id.
func (c *Client) CreateDeck(ctx context.Context, items []model.CardItem) (string, error) {
	var out struct {
		DeckID string `json:"deck_id"`
	}
	body := struct {
		Items []model.CardItem `json:"items"`
	}{Items: items}
	if err := c.do(ctx, http.MethodPost, "/decks", body, &out); err != nil {
		return "", err
	}
	return out.DeckID, nil
}

// Gesture posts one sample. It reports duplicate when the server had
// already accepted the event id.
func (c *Client) Gesture(ctx context.Context, deckID string, g Gesture) (duplicate bool, err error) {
	var out struct {
		Duplicate bool `json:"duplicate"`
	}
	if err := c.do(ctx, http.MethodPost, "/decks/"+deckID+"/gestures", g, &out); err != nil {
		return false, err
	}
	return out.Duplicate, nil
}

// Deck fetches the render snapshot of a deck.
func (c *Client) Deck(ctx context.Context, deckID string) (types.DeckView, error) {
	var out types.DeckView
	err := c.do(ctx, http.MethodGet, "/decks/"+deckID, nil, &out)
	return out, err
}

// DeleteDeck removes a deck from the server.
func (c *Client) DeleteDeck(ctx context.Context, deckID string) error {
	return c.do(ctx, http.MethodDelete, "/decks/"+deckID, nil, nil)
}

// Health checks the server's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("server unhealthy: %q", out.Status)
	}
	return nil
}

// ViewportWidth asks the server which width it judges drags against.
func (c *Client) ViewportWidth(ctx context.Context) (float64, error) {
	var out struct {
		ViewportWidth float64 `json:"viewportWidth"`
	}
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return 0, err
	}
	if out.ViewportWidth <= 0 {
		return 0, fmt.Errorf("server reported viewport width %v", out.ViewportWidth)
	}
	return out.ViewportWidth, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s %s: %w", method, req.URL, ErrBackpressure)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, req.URL, resp.Status, bytes.TrimSpace(msg))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
