package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/wire"
)

type fakeSession struct {
	token     string
	authFails atomic.Int32
}

func (f *fakeSession) Token() string               { return f.token }
func (f *fakeSession) HandleAuthFailure(err error) { f.authFails.Add(1) }

func newTestClient(t *testing.T, h http.Handler, opts Options) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func writeError(w http.ResponseWriter, status int, code string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(wire.ErrorBody{Error: wire.APIError{Message: code, Code: code, Fields: fields}})
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestBearerTokenFromSession(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(domain.History{TotalVersions: 1, CurrentVersion: 1})
	}), Options{})
	c.Bind(&fakeSession{token: "tok-1"})

	if _, err := c.ListVersions(context.Background(), uuid.New()); err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("authorization: want=%q got=%q", "Bearer tok-1", gotAuth)
	}
}

func TestAuthFailureEscalatesToSession(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
	}), Options{})
	sess := &fakeSession{token: "expired"}
	c.Bind(sess)

	_, err := c.ListVersions(context.Background(), uuid.New())
	if !apierr.IsAuth(err) {
		t.Fatalf("kind: want=%q got=%q (%v)", apierr.KindAuthentication, apierr.KindOf(err), err)
	}
	if got := sess.authFails.Load(); got != 1 {
		t.Fatalf("auth failure callbacks: want=1 got=%d", got)
	}
}

func TestServerValidationCarriesFields(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, "validation", map[string]string{"github_username": "unknown user"})
	}), Options{})

	_, err := c.GenerateOptions(context.Background(), wire.GenerateOptionsRequest{GithubUsername: "ghost"})
	e, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected *apierr.Error, got %T", err)
	}
	if e.Kind != apierr.KindValidation || e.Source != apierr.SourceServer {
		t.Fatalf("want server validation, got kind=%q source=%q", e.Kind, e.Source)
	}
	if e.Fields["github_username"] != "unknown user" {
		t.Fatalf("fields: got=%v", e.Fields)
	}
}

func TestServerErrorKind(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), Options{})
	_, err := c.ListVersions(context.Background(), uuid.New())
	if apierr.KindOf(err) != apierr.KindServer {
		t.Fatalf("kind: want=%q got=%q", apierr.KindServer, apierr.KindOf(err))
	}
}

func TestNetworkErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c, err := New(Options{BaseURL: base})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ListVersions(context.Background(), uuid.New())
	if apierr.KindOf(err) != apierr.KindNetwork {
		t.Fatalf("kind: want=%q got=%q (%v)", apierr.KindNetwork, apierr.KindOf(err), err)
	}
}

func TestTimeoutKind(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), Options{Timeout: 50 * time.Millisecond})
	defer close(release)

	_, err := c.ListVersions(context.Background(), uuid.New())
	if apierr.KindOf(err) != apierr.KindTimeout {
		t.Fatalf("kind: want=%q got=%q (%v)", apierr.KindTimeout, apierr.KindOf(err), err)
	}
}

func TestCallerCancellationIsNotClassified(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.ListVersions(ctx, uuid.New())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.History{TotalVersions: 2, CurrentVersion: 2})
	}), Options{MaxRetries: 3})

	h, err := c.ListVersions(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if h.TotalVersions != 2 || calls.Load() != 3 {
		t.Fatalf("want 3 calls and total=2, got calls=%d total=%d", calls.Load(), h.TotalVersions)
	}
}

func TestPostIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), Options{MaxRetries: 3})

	err := c.RevertVersion(context.Background(), uuid.New(), uuid.New(), "prefer earlier tone")
	if apierr.KindOf(err) != apierr.KindServer {
		t.Fatalf("kind: want=%q got=%q", apierr.KindServer, apierr.KindOf(err))
	}
	if calls.Load() != 1 {
		t.Fatalf("calls: want=1 got=%d", calls.Load())
	}
}

func TestCompareUsesVersionQueryNames(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var gotA, gotB string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotA = r.URL.Query().Get("version_a_id")
		gotB = r.URL.Query().Get("version_b_id")
		_ = json.NewEncoder(w).Encode(domain.Comparison{})
	}), Options{})

	if _, err := c.CompareVersions(context.Background(), uuid.New(), a, b); err != nil {
		t.Fatalf("CompareVersions: %v", err)
	}
	if gotA != a.String() || gotB != b.String() {
		t.Fatalf("query: want a=%s b=%s got a=%s b=%s", a, b, gotA, gotB)
	}
}

func TestFetchProfileUsesExplicitToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(domain.Profile{RecommendationCount: 3, DailyLimit: 10})
	}), Options{})
	c.Bind(&fakeSession{token: "session-token"})

	p, err := c.FetchProfile(context.Background(), "fresh-token")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if gotAuth != "Bearer fresh-token" {
		t.Fatalf("authorization: want=%q got=%q", "Bearer fresh-token", gotAuth)
	}
	if p.RecommendationCount != 3 || p.DailyLimit != 10 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestEmptyOptionsIsServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wire.GenerateOptionsResponse{})
	}), Options{})
	_, err := c.GenerateOptions(context.Background(), wire.GenerateOptionsRequest{GithubUsername: "octocat"})
	if apierr.KindOf(err) != apierr.KindServer {
		t.Fatalf("kind: want=%q got=%q", apierr.KindServer, apierr.KindOf(err))
	}
}
