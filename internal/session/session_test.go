package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeFetcher struct {
	calls  atomic.Int32
	err    error
	gate   chan struct{}
	tokens []string
	mu     sync.Mutex
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, token string) (domain.Profile, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return domain.Profile{}, f.err
	}
	return domain.Profile{RecommendationCount: 4, DailyLimit: 10}, nil
}

func newState(f ProfileFetcher, clock *fakeClock) *State {
	return New(f, WithMinInterval(5*time.Second), WithClock(clock.Now))
}

func TestLoginStoresTokenAndProfile(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	f := &fakeFetcher{}
	s := newState(f, clock)

	if err := s.Login(context.Background(), "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	snap := s.Snapshot()
	if !snap.LoggedIn || snap.Token != "tok" {
		t.Fatalf("want logged in with tok, got %+v", snap)
	}
	if snap.Profile == nil || snap.Profile.RecommendationCount != 4 {
		t.Fatalf("profile not cached: %+v", snap.Profile)
	}
	if snap.Err != nil || snap.Loading {
		t.Fatalf("unexpected flags: err=%v loading=%v", snap.Err, snap.Loading)
	}
	if !snap.LastFetch.Equal(clock.Now()) {
		t.Fatalf("last fetch: want=%v got=%v", clock.Now(), snap.LastFetch)
	}
}

func TestReloginWithSameTokenKeepsProfile(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	f := &fakeFetcher{}
	s := newState(f, clock)
	ctx := context.Background()

	if err := s.Login(ctx, "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	clock.Advance(time.Second)
	if err := s.Login(ctx, "tok"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("calls: want=1 got=%d", got)
	}
	snap := s.Snapshot()
	if !snap.LoggedIn || snap.Profile == nil || snap.Profile.RecommendationCount != 4 {
		t.Fatalf("profile lost on re-login: %+v", snap)
	}
	if snap.Loading {
		t.Fatalf("loading flag left set")
	}

	if err := s.Login(ctx, "other"); err != nil {
		t.Fatalf("Login other: %v", err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("new token should refetch: calls=%d", got)
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	f := &fakeFetcher{}
	s := newState(f, &fakeClock{now: time.Unix(1000, 0)})
	err := s.Login(context.Background(), "  ")
	if !apierr.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if f.calls.Load() != 0 || s.LoggedIn() {
		t.Fatalf("empty token must not log in or fetch")
	}
}

func TestLoginAuthFailureStillLogsIn(t *testing.T) {
	f := &fakeFetcher{err: apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("expired"))}
	s := newState(f, &fakeClock{now: time.Unix(1000, 0)})

	if err := s.Login(context.Background(), "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	snap := s.Snapshot()
	if !snap.LoggedIn || snap.Token != "tok" {
		t.Fatalf("auth failure during refresh must keep the token: %+v", snap)
	}
	if snap.Err != nil {
		t.Fatalf("auth failure must not set the error flag, got %v", snap.Err)
	}
}

func TestLoginNetworkFailureSetsErrorFlag(t *testing.T) {
	f := &fakeFetcher{err: apierr.Wrap(apierr.KindNetwork, errors.New("dial"))}
	s := newState(f, &fakeClock{now: time.Unix(1000, 0)})

	if err := s.Login(context.Background(), "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	snap := s.Snapshot()
	if !snap.LoggedIn {
		t.Fatalf("want logged in")
	}
	if apierr.KindOf(snap.Err) != apierr.KindNetwork {
		t.Fatalf("error flag: want=%q got=%v", apierr.KindNetwork, snap.Err)
	}
}

func TestRefreshIsThrottled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	f := &fakeFetcher{}
	s := newState(f, clock)
	if err := s.Login(context.Background(), "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	clock.Advance(time.Second)
	ran, err := s.RefreshProfile(context.Background())
	if err != nil || ran {
		t.Fatalf("refresh inside interval: want dropped, got ran=%v err=%v", ran, err)
	}
	if f.calls.Load() != 1 {
		t.Fatalf("calls: want=1 got=%d", f.calls.Load())
	}

	clock.Advance(5 * time.Second)
	ran, err = s.RefreshProfile(context.Background())
	if err != nil || !ran {
		t.Fatalf("refresh after interval: want ran, got ran=%v err=%v", ran, err)
	}
	if f.calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", f.calls.Load())
	}
}

func TestRefreshWhenLoggedOutIsNoop(t *testing.T) {
	f := &fakeFetcher{}
	s := newState(f, &fakeClock{now: time.Unix(1000, 0)})
	ran, err := s.RefreshProfile(context.Background())
	if ran || err != nil || f.calls.Load() != 0 {
		t.Fatalf("want no-op, got ran=%v err=%v calls=%d", ran, err, f.calls.Load())
	}
}

func TestLogoutIsIdempotentAndClearsEverything(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := newState(&fakeFetcher{}, clock)
	if err := s.Login(context.Background(), "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	s.Logout()
	s.Logout()

	snap := s.Snapshot()
	if snap.LoggedIn || snap.Token != "" || snap.Profile != nil {
		t.Fatalf("want cleared session, got %+v", snap)
	}
	if !snap.LastFetch.IsZero() {
		t.Fatalf("last fetch should be cleared, got %v", snap.LastFetch)
	}
}

func TestHandleAuthFailureLogsOut(t *testing.T) {
	s := newState(&fakeFetcher{}, &fakeClock{now: time.Unix(1000, 0)})
	_ = s.Login(context.Background(), "tok")
	s.HandleAuthFailure(apierr.New(http.StatusForbidden, "forbidden", nil))
	if s.LoggedIn() || s.Token() != "" {
		t.Fatalf("want logged out after auth failure")
	}
}

func TestLateResultAfterLogoutIsDiscarded(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	s := newState(f, &fakeClock{now: time.Unix(1000, 0)})

	done := make(chan struct{})
	go func() {
		_ = s.Login(context.Background(), "tok")
		close(done)
	}()
	for f.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Logout()
	close(f.gate)
	<-done

	snap := s.Snapshot()
	if snap.LoggedIn || snap.Profile != nil || snap.Loading {
		t.Fatalf("late profile must not resurrect the session: %+v", snap)
	}
}

func TestConcurrentRefreshSharesOneFetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	f := &fakeFetcher{}
	s := New(f, WithMinInterval(0), WithClock(clock.Now))
	_ = s.Login(context.Background(), "tok")

	f.gate = make(chan struct{})
	f.calls.Store(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RefreshProfile(context.Background())
		}()
	}
	for f.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	if got := f.calls.Load(); got != 1 {
		t.Fatalf("calls: want=1 got=%d", got)
	}
}

func TestLoginWithNewTokenBypassesThrottle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	f := &fakeFetcher{}
	s := newState(f, clock)
	_ = s.Login(context.Background(), "first")
	clock.Advance(time.Second)
	_ = s.Login(context.Background(), "second")

	if f.calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", f.calls.Load())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens[1] != "second" {
		t.Fatalf("second fetch token: want=%q got=%q", "second", f.tokens[1])
	}
}

func TestCloseRefusesLogin(t *testing.T) {
	s := newState(&fakeFetcher{}, &fakeClock{now: time.Unix(1000, 0)})
	s.Close()
	if err := s.Login(context.Background(), "tok"); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed got=%v", err)
	}
}
