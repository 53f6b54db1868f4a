package tools_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/tools"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, `{"rows": 2}`)
	})
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Type", r.Header.Get("Content-Type"))
		w.Header().Set("X-Seen-Token", r.Header.Get("X-Token"))
		_, _ = io.Copy(w, r.Body)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTP(t *testing.T) {
	srv := newServer(t)
	call := tools.HTTP()

	t.Run("Decodes JSON", func(t *testing.T) {
		resp, err := call(context.Background(), domain.HTTPRequest{URL: srv.URL + "/json"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, map[string]any{"rows": float64(2)}, resp.Body)
	})

	t.Run("Encodes structured bodies", func(t *testing.T) {
		resp, err := call(context.Background(), domain.HTTPRequest{
			URL:     srv.URL + "/echo",
			Method:  http.MethodPost,
			Body:    map[string]any{"a": 1},
			Headers: map[string]string{"X-Token": "secret"},
		})
		require.NoError(t, err)

		var echoed map[string]any
		require.NoError(t, json.Unmarshal([]byte(resp.Body.(string)), &echoed))
		assert.Equal(t, map[string]any{"a": float64(1)}, echoed)
	})

	t.Run("Plain text bodies", func(t *testing.T) {
		resp, err := call(context.Background(), domain.HTTPRequest{URL: srv.URL + "/echo", Method: http.MethodPost, Body: "raw"})
		require.NoError(t, err)
		assert.Equal(t, "raw", resp.Body)
	})

	t.Run("Status is reported, not failed", func(t *testing.T) {
		resp, err := call(context.Background(), domain.HTTPRequest{URL: srv.URL + "/missing"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Transport errors fail", func(t *testing.T) {
		_, err := call(context.Background(), domain.HTTPRequest{URL: "http://127.0.0.1:0/none"})
		assert.Error(t, err)
	})
}

func TestHTTP_MaxBody(t *testing.T) {
	srv := newServer(t)
	resp, err := tools.HTTP(tools.WithMaxBody(3))(context.Background(), domain.HTTPRequest{
		URL: srv.URL + "/echo", Method: http.MethodPost, Body: "truncate me",
	})
	require.NoError(t, err)
	assert.Equal(t, "tru", resp.Body)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := tools.Logger(slog.New(slog.NewTextHandler(&buf, nil)))

	log("node results", map[string]any{"z": 1, "a": "x"})
	assert.Contains(t, buf.String(), `msg="node results" a=x z=1`)

	var rc domain.Context
	rc.Tools = tools.Default(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NotNil(t, rc.Tools.HTTP)
	rc.Tools.Log("ok", nil)
}
