// Package remote is the HTTP transport for the recommendation API. It maps
// every failure onto the apierr taxonomy and reports authentication failures
// to the bound session.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/ctxutil"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/wire"
)

const headerRequestID = "X-Request-Id"

type Options struct {
	BaseURL string

	// Timeout bounds each attempt. Zero means 30s.
	Timeout time.Duration

	// MaxRetries applies to idempotent GETs only. POSTs are never retried.
	MaxRetries int

	HTTPClient *http.Client
	Log        *logger.Logger
}

// SessionBinding supplies the bearer token and receives authentication
// failures from any call.
type SessionBinding interface {
	Token() string
	HandleAuthFailure(err error)
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	log        *logger.Logger

	session atomic.Pointer[sessionRef]
}

type sessionRef struct{ SessionBinding }

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
		log:        log.With("component", "RemoteClient"),
	}, nil
}

// Bind attaches the session used for tokens and auth-failure escalation.
func (c *Client) Bind(s SessionBinding) {
	if s == nil {
		c.session.Store(nil)
		return
	}
	c.session.Store(&sessionRef{s})
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	if ref := c.session.Load(); ref != nil {
		return ref.Token()
	}
	return ""
}

func (c *Client) GenerateOptions(ctx context.Context, req wire.GenerateOptionsRequest) ([]domain.Option, error) {
	var resp wire.GenerateOptionsResponse
	if err := c.doJSON(ctx, c.token(), http.MethodPost, "/api/recommendations/generate-options", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Options) == 0 {
		return nil, apierr.Wrap(apierr.KindServer, errors.New("generate-options returned no options"))
	}
	return resp.Options, nil
}

func (c *Client) CreateFromOption(ctx context.Context, req wire.CreateFromOptionRequest) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	if err := c.doJSON(ctx, c.token(), http.MethodPost, "/api/recommendations/create-from-option", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GetRecommendation(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	if err := c.doJSON(ctx, c.token(), http.MethodGet, "/api/recommendations/"+id.String(), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ListVersions(ctx context.Context, id uuid.UUID) (domain.History, error) {
	var h domain.History
	if err := c.doJSON(ctx, c.token(), http.MethodGet, "/api/recommendations/"+id.String()+"/versions", nil, &h); err != nil {
		return domain.History{}, err
	}
	return h, nil
}

func (c *Client) CompareVersions(ctx context.Context, id, versionA, versionB uuid.UUID) (domain.Comparison, error) {
	q := url.Values{}
	q.Set(wire.QueryVersionA, versionA.String())
	q.Set(wire.QueryVersionB, versionB.String())
	path := "/api/recommendations/" + id.String() + "/versions/compare?" + q.Encode()
	var cmp domain.Comparison
	if err := c.doJSON(ctx, c.token(), http.MethodGet, path, nil, &cmp); err != nil {
		return domain.Comparison{}, err
	}
	return cmp, nil
}

func (c *Client) RevertVersion(ctx context.Context, id, versionID uuid.UUID, reason string) error {
	body := wire.RevertRequest{VersionID: versionID, RevertReason: reason}
	return c.doJSON(ctx, c.token(), http.MethodPost, "/api/recommendations/"+id.String()+"/versions/revert", body, nil)
}

func (c *Client) RefineKeywords(ctx context.Context, req domain.RefinementRequest) (domain.RefinementResult, error) {
	body := wire.RefineKeywordsRequest{
		IncludeKeywords:        req.IncludeKeywords,
		ExcludeKeywords:        req.ExcludeKeywords,
		RefinementInstructions: req.Instructions,
	}
	var out domain.RefinementResult
	if err := c.doJSON(ctx, c.token(), http.MethodPost, "/api/recommendations/"+req.RecommendationID.String()+"/refine-keywords", body, &out); err != nil {
		return domain.RefinementResult{}, err
	}
	return out, nil
}

func (c *Client) UpdateContent(ctx context.Context, id uuid.UUID, content, description string) (*domain.Recommendation, error) {
	body := wire.UpdateContentRequest{Content: content, Description: description}
	var rec domain.Recommendation
	if err := c.doJSON(ctx, c.token(), http.MethodPut, "/api/recommendations/"+id.String()+"/content", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchProfile uses the given token rather than the bound session so a login
// can verify a token before it is visible to other callers.
func (c *Client) FetchProfile(ctx context.Context, token string) (domain.Profile, error) {
	var p domain.Profile
	if err := c.doJSON(ctx, token, http.MethodGet, "/api/auth/profile", nil, &p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

func (c *Client) IssueToken(ctx context.Context, email, password string) (wire.TokenResponse, error) {
	var out wire.TokenResponse
	body := wire.TokenRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, "", http.MethodPost, "/api/auth/token", body, &out); err != nil {
		return wire.TokenResponse{}, err
	}
	return out, nil
}

// ---------------- HTTP helpers ----------------

func (c *Client) doJSON(ctx context.Context, token, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	reqID := ctxutil.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}

	attempt := func() error {
		return c.once(ctx, token, reqID, method, path, payload, out)
	}
	var err error
	if method == http.MethodGet && c.maxRetries > 0 {
		err = c.retry(ctx, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		c.log.Debug("remote call failed", "method", method, "path", path, "request_id", reqID, "kind", apierr.KindOf(err), "error", err)
		if apierr.IsAuth(err) {
			if ref := c.session.Load(); ref != nil {
				ref.HandleAuthFailure(err)
			}
		}
	}
	return err
}

func (c *Client) retry(ctx context.Context, attempt func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx)
	return backoff.Retry(func() error {
		err := attempt()
		if err == nil {
			return nil
		}
		if e, ok := apierr.As(err); ok && e.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

func (c *Client) once(ctx context.Context, token, reqID, method, path string, payload []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx2, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, reqID)
	if t := strings.TrimSpace(token); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, ctx2, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return classifyTransportError(ctx, ctx2, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.Wrap(apierr.KindServer, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyTransportError maps a failure with no HTTP response. Caller
// cancellation is returned unchanged so it can be told apart from a timeout.
func classifyTransportError(parent, attempt context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apierr.Wrap(apierr.KindTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return apierr.Wrap(apierr.KindTimeout, err)
	}
	return apierr.Wrap(apierr.KindNetwork, err)
}

func parseHTTPError(status int, raw []byte) error {
	var env wire.ErrorBody
	msg := ""
	e := &apierr.Error{Kind: apierr.KindForStatus(status), Status: status, Source: apierr.SourceServer}
	if err := json.Unmarshal(raw, &env); err == nil {
		msg = strings.TrimSpace(env.Error.Message)
		e.Code = strings.TrimSpace(env.Error.Code)
		if len(env.Error.Fields) > 0 {
			e.Fields = apierr.Fields(env.Error.Fields)
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "http error"
	}
	e.Err = fmt.Errorf("http %d: %s", status, msg)
	return e
}
