package model

// CardItem is one entry of a visible stack. ImageRef is opaque to the engine.
type CardItem struct {
	ID       string `json:"id"`
	ImageRef string `json:"image_ref"`
}

// Direction is the side a card was committed to.
type Direction int

// Directions.
const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "none"
	}
}

// Decision is the outward notification that a card was committed.
type Decision struct {
	DeckID    string
	CardID    string
	Direction Direction
}
