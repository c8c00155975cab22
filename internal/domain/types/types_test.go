package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/swipedeck/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeckViewJSON(t *testing.T) {
	Convey("Given a deck view", t, func() {
		view := types.DeckView{
			DeckID: "d1",
			Size:   1,
			TopID:  "c1",
			Layers: []types.Layer{{ID: "c1", ImageRef: "img", Interactive: true, Phase: "dragging", TranslateX: 12}},
		}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(view)
			So(err, ShouldBeNil)

			var decoded map[string]any
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)

			Convey("Then it should use snake_case wire names", func() {
				So(decoded["deck_id"], ShouldEqual, "d1")
				So(decoded["top_id"], ShouldEqual, "c1")
				layer := decoded["layers"].([]any)[0].(map[string]any)
				So(layer["image_ref"], ShouldEqual, "img")
				So(layer["translate_x"], ShouldEqual, float64(12))
				So(layer["interactive"], ShouldEqual, true)
			})
		})

		Convey("When the deck is empty", func() {
			raw, err := json.Marshal(types.DeckView{DeckID: "d2", Layers: []types.Layer{}})
			So(err, ShouldBeNil)

			Convey("Then top_id should be omitted", func() {
				So(string(raw), ShouldNotContainSubstring, "top_id")
				So(string(raw), ShouldContainSubstring, `"layers":[]`)
			})
		})
	})
}
