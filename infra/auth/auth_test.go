package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/stream"
)

func tokenServer(t *testing.T, hits *atomic.Int32, expiresIn int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token` + strconv.Itoa(int(n)) + `","token_type":"bearer","expires_in":` + strconv.Itoa(expiresIn) + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCred_CachesToken(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits, 3600)
	c := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL})

	assert.Equal(t, "token1", c.Token())
	tok, err := c.RefreshIfNeeded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token1", tok)
	assert.Equal(t, int32(1), hits.Load())

	tok, err = c.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token2", tok)

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	require.NoError(t, c.SetAuthHeader(req))
	assert.Equal(t, "Bearer token2", req.Header.Get("Authorization"))
}

func TestClientCred_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := NewClientCred(Conf{ClientID: "id", AuthURL: srv.URL})
	assert.Empty(t, c.Token())
	_, err := c.RefreshIfNeeded(context.Background())
	assert.Error(t, err)
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "exp": exp.Unix()}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestStatic_OpaqueToken(t *testing.T) {
	s := NewStatic("opaque")
	assert.Equal(t, "opaque", s.Token())
	tok, err := s.RefreshIfNeeded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque", tok)

	empty := NewStatic("")
	assert.Empty(t, empty.Token())
	_, err = empty.RefreshIfNeeded(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestStatic_JWTExpiry(t *testing.T) {
	now := time.Now()
	valid := NewStatic(signed(t, now.Add(time.Hour)))
	assert.NotEmpty(t, valid.Token())

	valid.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.Empty(t, valid.Token())
	_, err := valid.RefreshIfNeeded(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestNew(t *testing.T) {
	p, err := New(Conf{Token: "t"})
	require.NoError(t, err)
	assert.IsType(t, &Static{}, p)

	p, err = New(Conf{Method: "oauth2", ClientID: "id", AuthURL: "http://localhost/token"})
	require.NoError(t, err)
	assert.IsType(t, &ClientCred{}, p)

	_, err = New(Conf{Method: "oauth2"})
	assert.Error(t, err)
	_, err = New(Conf{Method: "saml"})
	assert.Error(t, err)
}

func TestStatic_ExpiredIsAuthUnavailable(t *testing.T) {
	_, err := NewStatic("").RefreshIfNeeded(context.Background())
	assert.ErrorIs(t, err, stream.ErrAuthUnavailable)
}
