package mw_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/treeviz/util/log"
	"github.com/wkalt/treeviz/util/mw"
)

func TestWithRequestID(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	buf := &bytes.Buffer{}
	log.Init(buf, slog.LevelInfo)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Infof(r.Context(), "test")
	})
	t.Run("generated", func(t *testing.T) {
		buf.Reset()
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
		require.NoError(t, err)
		recorder := httptest.NewRecorder()
		mw.WithRequestID(handler).ServeHTTP(recorder, req)
		id := recorder.Header().Get(mw.RequestIDHeader)
		require.Len(t, id, 36)
		assert.Contains(t, buf.String(), "request_id="+id)
	})
	t.Run("supplied", func(t *testing.T) {
		buf.Reset()
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
		require.NoError(t, err)
		req.Header.Set(mw.RequestIDHeader, "abc")
		recorder := httptest.NewRecorder()
		mw.WithRequestID(handler).ServeHTTP(recorder, req)
		assert.Equal(t, "abc", recorder.Header().Get(mw.RequestIDHeader))
		assert.Contains(t, buf.String(), "request_id=abc")
	})
}

func TestWithCORSAllowedOrigins(t *testing.T) {
	cases := []struct {
		assertion string
		origins   []string
		origin    string
		method    string
		allowed   string
		code      int
	}{
		{"allowed origin", []string{"http://a"}, "http://a", http.MethodGet, "http://a", http.StatusTeapot},
		{"other origin", []string{"http://a"}, "http://b", http.MethodGet, "", http.StatusTeapot},
		{"wildcard", []string{"*"}, "http://b", http.MethodGet, "http://b", http.StatusTeapot},
		{"preflight short circuits", []string{"http://a"}, "http://a", http.MethodOptions, "http://a", http.StatusOK},
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			req := httptest.NewRequest(c.method, "/", nil)
			req.Header.Set("Origin", c.origin)
			recorder := httptest.NewRecorder()
			mw.WithCORSAllowedOrigins(c.origins)(handler).ServeHTTP(recorder, req)
			assert.Equal(t, c.code, recorder.Code)
			assert.Equal(t, c.allowed, recorder.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
