// Package types contains common types used across the application
package types

// Layer is the render shape of one card in a deck, bottom first.
type Layer struct {
	ID             string  `json:"id"`
	ImageRef       string  `json:"image_ref"`
	Index          int     `json:"index"`
	Interactive    bool    `json:"interactive"`
	Phase          string  `json:"phase"`
	TranslateX     float64 `json:"translate_x"`
	TranslateY     float64 `json:"translate_y"`
	RotateDeg      float64 `json:"rotate_deg"`
	PendingRemoval bool    `json:"pending_removal"`
}

// DeckView is a snapshot of a deck as the rendering layer sees it.
type DeckView struct {
	DeckID      string  `json:"deck_id"`
	Size        int     `json:"size"`
	TopID       string  `json:"top_id,omitempty"`
	SwipedLeft  int64   `json:"swiped_left"`
	SwipedRight int64   `json:"swiped_right"`
	Applied     int64   `json:"applied"`
	Layers      []Layer `json:"layers"`
}
