package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/swipedeck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped with metrics", t, func() {
		var called bool
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		}, "test")

		Convey("The status code passes through", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(called, ShouldBeTrue)
			So(w.Code, ShouldEqual, http.StatusTeapot)
		})
	})

	Convey("Given a request logger", t, func() {
		mw := RequestLogger(logger.NewNop())
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		Convey("It does not alter the response", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestGetErrorType(t *testing.T) {
	Convey("Status codes map to error types", t, func() {
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(503), ShouldEqual, "server_error")
		So(getErrorType(429), ShouldEqual, "rate_limit")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorType(200), ShouldEqual, "unknown")
	})
}
