package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthServer returns a test server whose refresh endpoint counts
// calls and hands out sequential tokens, and whose protected endpoint
// accepts only the given token set.
func newAuthServer(t *testing.T, refreshCalls *int32, accept func(token string) bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(refreshCalls, 1)
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.RefreshToken != "good-refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired refresh token"})
			return
		}
		// small delay widens the race window for the single-flight test
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "fresh-access", "expiresIn": 900})
	})
	mux.HandleFunc("/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	mux.HandleFunc("/v1/protected", func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if accept != nil && accept(token) {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func seedSession(s *Session, access string, refresh string, expiresAt time.Time) {
	s.mu.Lock()
	s.state = State{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}
	s.loaded = true
	s.mu.Unlock()
}

func TestGetValidTokenRefreshesNearExpiry(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, nil)
	s := NewSession(srv.URL, &MemStore{})
	// token expires inside the 60s skew buffer, so a refresh must happen
	seedSession(s, "stale-access", "good-refresh", time.Now().Add(30*time.Second))

	token, err := s.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestConcurrentRefreshIsSingleFlight(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, nil)
	s := NewSession(srv.URL, &MemStore{})
	seedSession(s, "stale-access", "good-refresh", time.Now().Add(-time.Minute))

	const n = 16
	var wg sync.WaitGroup
	tokens := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = s.GetValidToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh-access", tokens[i])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "concurrent callers must share one refresh request")
}

func TestOnChangeListenerMayReenterSession(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, nil)
	s := NewSession(srv.URL, &MemStore{})
	seedSession(s, "stale-access", "good-refresh", time.Now().Add(-time.Minute))

	// a listener that reads back through the session must not deadlock
	var fromListener string
	s.OnChange(func(st State) {
		if st.Empty() {
			return
		}
		tok, err := s.GetValidToken(context.Background())
		require.NoError(t, err)
		fromListener = tok
	})

	token, err := s.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
	assert.Equal(t, "fresh-access", fromListener)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "the listener reused the already-fresh token")
}

func TestDoRetriesExactlyOnceAfter401(t *testing.T) {
	var calls int32
	var protectedHits int32
	srv := newAuthServer(t, &calls, func(token string) bool {
		atomic.AddInt32(&protectedHits, 1)
		return token == "Bearer fresh-access"
	})
	s := NewSession(srv.URL, &MemStore{})
	// the access token looks valid locally but the server rejects it
	seedSession(s, "revoked-access", "good-refresh", time.Now().Add(time.Hour))

	resp, err := s.Do(context.Background(), http.MethodGet, "/v1/protected", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, atomic.LoadInt32(&protectedHits), "one failed call plus one retry")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDoSurfacesSessionExpiredAndClearsState(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, func(string) bool { return false })
	store := &MemStore{}
	s := NewSession(srv.URL, store)
	// the refresh token is bad, so the retry cycle cannot recover
	seedSession(s, "revoked-access", "bad-refresh", time.Now().Add(time.Hour))

	_, err := s.Do(context.Background(), http.MethodGet, "/v1/protected", nil)
	assert.ErrorIs(t, err, ErrSessionExpired)

	st, _ := store.Load()
	assert.True(t, st.Empty(), "failed recovery must clear local state")

	// with no session at all, Do fails fast
	_, err = s.Do(context.Background(), http.MethodGet, "/v1/protected", nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogoutClearsStateEvenWhenServerUnreachable(t *testing.T) {
	store := &MemStore{}
	_ = store.Save(State{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)})

	s := NewSession("http://127.0.0.1:1", store) // nothing listens here
	seedSession(s, "a", "r", time.Now().Add(time.Hour))

	var changed int32
	s.OnChange(func(st State) {
		if st.Empty() {
			atomic.AddInt32(&changed, 1)
		}
	})

	s.Logout(context.Background())

	st, _ := store.Load()
	assert.True(t, st.Empty())
	assert.EqualValues(t, 1, atomic.LoadInt32(&changed), "listeners observe the logout")
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs := NewFileStore(path)

	st, err := fs.Load()
	require.NoError(t, err)
	assert.True(t, st.Empty(), "missing file loads as empty session")

	want := State{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, fs.Save(want))

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, fs.Clear())
	st, err = fs.Load()
	require.NoError(t, err)
	assert.True(t, st.Empty())
	assert.NoError(t, fs.Clear(), "clearing twice is fine")
}
