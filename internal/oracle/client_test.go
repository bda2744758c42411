package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

func TestConfirmResolvedYes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resolution/cond-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"condition_id":"cond-1","resolved":true,"answer":"yes","confidence":0.97}`))
	}))
	defer srv.Close()

	conf, err := NewClient(srv.URL).Confirm(context.Background(), "cond-1")
	require.NoError(t, err)
	assert.True(t, conf.Answer)
	assert.InDelta(t, 0.97, conf.Confidence, 1e-9)
}

func TestConfirmUnresolvedHasZeroConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"condition_id":"cond-1","resolved":false}`))
	}))
	defer srv.Close()

	conf, err := NewClient(srv.URL).Confirm(context.Background(), "cond-1")
	require.NoError(t, err)
	assert.Zero(t, conf.Confidence)
}

func TestConfirmUnknownCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Confirm(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Confirm(context.Background(), "cond-1")
	assert.Error(t, err)
}
