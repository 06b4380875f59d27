// Package session holds the process-wide authentication state: the bearer
// token, the cached profile and the throttled profile refresh.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/throttle"
)

// DefaultMinInterval is the profile refresh throttle window.
const DefaultMinInterval = 5 * time.Second

var ErrClosed = errors.New("session closed")

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (domain.Profile, error)
}

// Snapshot is an immutable copy of the session. LastFetch is zero until a
// refresh has started.
type Snapshot struct {
	Token     string
	LoggedIn  bool
	Profile   *domain.Profile
	Loading   bool
	Err       error
	LastFetch time.Time
}

type Option func(*State)

func WithMinInterval(d time.Duration) Option {
	return func(s *State) { s.minInterval = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *State) {
		if log != nil {
			s.log = log
		}
	}
}

// State is safe for concurrent readers. Every write replaces the snapshot
// under the lock once its async work has resolved.
type State struct {
	fetcher ProfileFetcher
	log     *logger.Logger

	minInterval time.Duration
	now         func() time.Time
	guard       *throttle.Guard
	flight      singleflight.Group

	mu     sync.RWMutex
	snap   Snapshot
	epoch  uint64
	closed bool
}

func New(fetcher ProfileFetcher, opts ...Option) *State {
	s := &State{
		fetcher:     fetcher,
		log:         logger.Nop(),
		minInterval: DefaultMinInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "SessionState")
	s.guard = throttle.New(s.minInterval, throttle.WithClock(s.now))
	return s
}

// Init restores a previously persisted token. An empty token leaves the
// session logged out.
func (s *State) Init(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.Login(ctx, token)
}

// Close logs out and refuses further logins.
func (s *State) Close() {
	s.Logout()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	if out.Profile != nil {
		p := *out.Profile
		out.Profile = &p
	}
	out.LastFetch = s.guard.LastStart()
	return out
}

func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Token
}

func (s *State) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LoggedIn
}

// Login stores token and refreshes the profile. An authentication failure
// during that refresh still leaves the token stored: logout on 401/403 is the
// transport interceptor's job. Any other refresh failure is kept as a
// non-fatal error flag.
func (s *State) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apierr.Validation(apierr.Fields{"token": "token is required"})
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	next := Snapshot{Token: token, LoggedIn: true}
	if s.snap.Token == token && s.snap.Profile != nil {
		// Same token: the cached profile stays valid for the throttle window.
		next.Profile, next.Err, next.LastFetch = s.snap.Profile, s.snap.Err, s.snap.LastFetch
	} else {
		s.guard.Reset()
	}
	s.epoch++
	s.snap = next
	s.mu.Unlock()

	s.log.Info("session login")

	if _, err := s.RefreshProfile(ctx); err != nil {
		if apierr.IsAuth(err) {
			s.log.Warn("profile refresh after login rejected", "error", err)
			return nil
		}
		s.log.Warn("profile refresh after login failed", "error", err)
	}
	return nil
}

// Logout clears the token, the cached profile and the throttle timestamp.
// Calling it more than once is safe.
func (s *State) Logout() {
	s.mu.Lock()
	wasLoggedIn := s.snap.LoggedIn
	s.epoch++
	s.snap = Snapshot{}
	s.guard.Reset()
	s.mu.Unlock()
	if wasLoggedIn {
		s.log.Info("session logout")
	}
}

// HandleAuthFailure is the global interceptor hook for 401/403 responses.
func (s *State) HandleAuthFailure(err error) {
	s.log.Warn("authentication failure, logging out", "error", err)
	s.Logout()
}

// RefreshProfile fetches the profile unless a refresh started within the
// throttle window, in which case it returns (false, nil). Concurrent callers
// share one in-flight fetch. Results that resolve after a login or logout are
// discarded.
func (s *State) RefreshProfile(ctx context.Context) (bool, error) {
	s.mu.RLock()
	token, epoch, loggedIn := s.snap.Token, s.epoch, s.snap.LoggedIn
	s.mu.RUnlock()
	if !loggedIn {
		return false, nil
	}
	if !s.guard.Allow() {
		return false, nil
	}

	key := "profile:" + strconv.FormatUint(epoch, 10)
	_, err, _ := s.flight.Do(key, func() (any, error) {
		s.apply(epoch, func(snap *Snapshot) { snap.Loading = true })
		p, err := s.fetcher.FetchProfile(ctx, token)
		s.apply(epoch, func(snap *Snapshot) {
			snap.Loading = false
			switch {
			case err == nil:
				snap.Profile = &p
				snap.Err = nil
			case apierr.IsAuth(err):
			default:
				snap.Err = err
			}
		})
		return nil, err
	})
	return true, err
}

func (s *State) apply(epoch uint64, fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	next := s.snap
	fn(&next)
	s.snap = next
}
