package model_test

import (
	"testing"

	model "github.com/okian/swipedeck/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseGestureKind(t *testing.T) {
	convey.Convey("Given wire spellings of gesture kinds", t, func() {
		convey.Convey("When parsing known kinds", func() {
			cases := map[string]model.GestureKind{
				"start":  model.GestureStart,
				"UPDATE": model.GestureUpdate,
				" end ":  model.GestureEnd,
				"cancel": model.GestureCancel,
			}

			convey.Convey("Then each should map to its constant", func() {
				for in, want := range cases {
					got, err := model.ParseGestureKind(in)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldEqual, want)
				}
			})
		})

		convey.Convey("When parsing an unknown kind", func() {
			_, err := model.ParseGestureKind("pinch")

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "pinch")
			})
		})
	})
}

func TestDirectionString(t *testing.T) {
	convey.Convey("Given the swipe directions", t, func() {
		convey.So(model.DirectionLeft.String(), convey.ShouldEqual, "left")
		convey.So(model.DirectionRight.String(), convey.ShouldEqual, "right")
		convey.So(model.DirectionNone.String(), convey.ShouldEqual, "none")
	})
}
