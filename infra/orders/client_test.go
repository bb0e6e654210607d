package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/auth"
)

func TestClient_LiveLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/deliveries/track/o1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"srcLat":17.385,"srcLon":78.4867,"curLat":17.39,"curLon":78.49,"desLat":17.4,"desLon":78.5,"status":"In Transit","timestamp":42}`))
		case "/api/deliveries/track/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/api/"}, auth.NewStatic("tok"))
	require.NoError(t, err)

	u, err := c.LiveLocation(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", u.VehicleID)
	assert.Equal(t, 17.39, u.CurrentLat)
	assert.Equal(t, model.StatusInTransit, u.Status)
	assert.Equal(t, uint64(42), u.Timestamp)

	_, err = c.LiveLocation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.LiveLocation(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_NoToken(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost"}, auth.NewStatic(""))
	require.NoError(t, err)
	_, err = c.LiveLocation(context.Background(), "o1")
	assert.ErrorIs(t, err, stream.ErrAuthUnavailable)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "::"}, nil)
	assert.Error(t, err)
}
