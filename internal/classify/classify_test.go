package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req suggestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "some episode text", req.Text)
		json.NewEncoder(w).Encode(suggestResponse{Categories: []string{"music", "history"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Suggest(context.Background(), "some episode text")

	require.NoError(t, err)
	assert.Equal(t, []string{"music", "history"}, got)
}

func TestSuggestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Suggest(context.Background(), "text")
	assert.Error(t, err)
}

func TestSuggestUnconfigured(t *testing.T) {
	got, err := New("").Suggest(context.Background(), "text")
	require.NoError(t, err)
	assert.Nil(t, got)
}
