// Package client implements the session-side token lifecycle: holding
// the access/refresh pair, refreshing proactively near expiry, retrying
// a request exactly once after a 401, and broadcasting state changes to
// interested listeners.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrSessionExpired signals that the session cannot be recovered by a
// refresh and the caller must authenticate again.
var ErrSessionExpired = errors.New("session expired")

// refreshSkew is the safety buffer before the recorded expiry at which a
// token is treated as already stale.
const refreshSkew = 60 * time.Second

type inflight struct {
	done  chan struct{}
	token string
	err   error
}

// Session is an HTTP client that manages the token pair against an
// orbit-api server. All methods are safe for concurrent use.
type Session struct {
	BaseURL string
	HTTP    *http.Client

	store Store

	mu        sync.Mutex
	state     State
	loaded    bool
	refresh   *inflight // shared by concurrent refreshers
	listeners []func(State)

	// now is swappable for tests.
	now func() time.Time
}

// NewSession builds a session backed by the given store.
func NewSession(baseURL string, store Store) *Session {
	return &Session{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
		now:     time.Now,
	}
}

// OnChange registers a listener fired after every token-state change,
// including logout. This is how one holder of the store reacts to
// another holder's logout.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// setState persists a new state and returns the broadcast to run once
// s.mu is released. Listeners must fire outside the lock: a listener
// that calls back into the session would otherwise deadlock on the
// non-reentrant mutex.
func (s *Session) setState(st State) func() {
	s.state = st
	s.loaded = true
	if st.Empty() {
		_ = s.store.Clear()
	} else {
		_ = s.store.Save(st)
	}
	fns := append(([]func(State))(nil), s.listeners...)
	return func() {
		for _, fn := range fns {
			fn(st)
		}
	}
}

// Login authenticates with credentials and stores the resulting pair.
func (s *Session) Login(ctx context.Context, email, password string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}
	var out struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}

	s.mu.Lock()
	notify := s.setState(State{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(out.ExpiresIn) * time.Second),
	})
	s.mu.Unlock()
	notify()
	return nil
}

// GetValidToken returns an access token that is good for at least the
// skew buffer, refreshing first when needed.
func (s *Session) GetValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.loaded {
		if st, err := s.store.Load(); err == nil {
			s.state = st
		}
		s.loaded = true
	}
	st := s.state
	s.mu.Unlock()

	if st.Empty() {
		return "", ErrSessionExpired
	}
	if s.now().Add(refreshSkew).Before(st.ExpiresAt) {
		return st.AccessToken, nil
	}
	return s.refreshAccessToken(ctx)
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers share a single in-flight request instead of issuing
// duplicate refresh calls. On failure all local token state is cleared.
func (s *Session) refreshAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.refresh != nil {
		// someone else is already refreshing; wait for their result
		fl := s.refresh
		s.mu.Unlock()
		select {
		case <-fl.done:
			return fl.token, fl.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	fl := &inflight{done: make(chan struct{})}
	s.refresh = fl
	refreshToken := s.state.RefreshToken
	s.mu.Unlock()

	token, expiresIn, err := s.doRefresh(ctx, refreshToken)

	s.mu.Lock()
	s.refresh = nil
	var notify func()
	if err != nil {
		notify = s.setState(State{})
		fl.err = ErrSessionExpired
	} else {
		st := s.state
		st.AccessToken = token
		st.ExpiresAt = s.now().Add(time.Duration(expiresIn) * time.Second)
		notify = s.setState(st)
		fl.token = token
	}
	s.mu.Unlock()

	close(fl.done)
	notify()
	return fl.token, fl.err
}

func (s *Session) doRefresh(ctx context.Context, refreshToken string) (string, int, error) {
	if refreshToken == "" {
		return "", 0, ErrSessionExpired
	}
	body, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("refresh failed: status %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, err
	}
	return out.AccessToken, out.ExpiresIn, nil
}

// Do performs an authenticated request against path. On a 401 response
// it attempts exactly one refresh-and-retry cycle; a second failure
// clears local state and returns ErrSessionExpired. It never retries
// more than once, so a permanently invalid session cannot loop.
func (s *Session) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := s.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.send(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	token, err = s.refreshAccessToken(ctx)
	if err != nil {
		return nil, ErrSessionExpired
	}
	resp, err = s.send(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		s.mu.Lock()
		notify := s.setState(State{})
		s.mu.Unlock()
		notify()
		return nil, ErrSessionExpired
	}
	return resp, nil
}

func (s *Session) send(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return s.HTTP.Do(req)
}

// Logout clears local token state immediately and then notifies the
// server on a best-effort basis; a failed revoke call does not block the
// local logout.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	refreshToken := s.state.RefreshToken
	notify := s.setState(State{})
	s.mu.Unlock()
	notify()

	if refreshToken == "" {
		return
	}
	body, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/auth/logout", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if resp, err := s.HTTP.Do(req); err == nil {
		resp.Body.Close()
	}
}
