package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"algotracker/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

func TestError_MapsKindAndHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.GET("/conflict", func(c *gin.Context) { Error(c, logger, apperr.Conflict("exists")) })
	r.GET("/boom", func(c *gin.Context) { Error(c, logger, errors.New("dsn root:secret@tcp")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["message"] != "internal server error" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestQueryBool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query string
		want  *bool
		ok    bool
	}{
		{"", nil, true},
		{"?fav=true", boolPtr(true), true},
		{"?fav=0", boolPtr(false), true},
		{"?fav=maybe", nil, false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
		got, ok := QueryBool(c, "fav")
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v", tc.query, ok)
		}
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Fatalf("%q: got %v", tc.query, got)
		}
	}
}

func boolPtr(b bool) *bool { return &b }
