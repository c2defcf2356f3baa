package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/fitroute/internal/middleware"
)

// drainHandler reads the whole body the way a JSON decoder would and answers
// 413 when the read is cut off by MaxBytesReader.
var drainHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if _, err := io.ReadAll(r.Body); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
})

func TestMaxBodySizeHandler(t *testing.T) {
	const limit = 64

	tests := []struct {
		name          string
		size          int
		contentLength int64
		want          int
	}{
		{name: "within limit", size: 32, contentLength: 32, want: http.StatusOK},
		{name: "exactly at limit", size: limit, contentLength: limit, want: http.StatusOK},
		{name: "declared length over limit", size: 128, contentLength: 128, want: http.StatusRequestEntityTooLarge},
		{name: "streamed body over limit", size: 128, contentLength: -1, want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.NewMaxBodySizeHandler(limit)(drainHandler)

			req := httptest.NewRequest(http.MethodPost, "/routes", strings.NewReader(strings.Repeat("x", tt.size)))
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
