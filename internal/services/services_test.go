package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gitrec/internal/data/repos"
	"github.com/yungbote/gitrec/internal/data/repos/testutil"
	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/generator/mock"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/ctxutil"
	"github.com/yungbote/gitrec/internal/quota"
	"github.com/yungbote/gitrec/internal/wire"
)

type fixture struct {
	db    *gorm.DB
	repos repos.Set
	auth  AuthService
	recs  RecommendationService
	prof  ProfileService
}

func newFixture(t *testing.T, dailyLimit int) fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	q := quota.NewMemoryStore(nil)
	return fixture{
		db:    db,
		repos: set,
		auth:  NewAuthService(db, log, set.Users, "test-secret", time.Hour),
		recs:  NewRecommendationService(log, set, mock.New(), q, dailyLimit, 2),
		prof:  NewProfileService(db, log, set, q, dailyLimit),
	}
}

func (f fixture) user(t *testing.T, email string) context.Context {
	t.Helper()
	u, err := f.auth.CreateUser(context.Background(), email, "password123", 0)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Email: u.Email})
}

func createRecommendation(t *testing.T, f fixture, ctx context.Context) *types.Recommendation {
	t.Helper()
	params := types.Params{WorkingRelationship: "We maintained a CLI together."}
	opts, err := f.recs.GenerateOptions(ctx, wire.GenerateOptionsRequest{GithubUsername: "https://github.com/octocat", Params: params})
	if err != nil {
		t.Fatalf("GenerateOptions: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("want 2 options got %d", len(opts))
	}
	rec, err := f.recs.CreateFromOption(ctx, wire.CreateFromOptionRequest{
		GithubUsername: "octocat",
		Params:         params,
		SelectedOption: opts[0],
		AllOptions:     opts,
	})
	if err != nil {
		t.Fatalf("CreateFromOption: %v", err)
	}
	return rec
}

func TestCreateRefineRevertAppendsVersions(t *testing.T) {
	f := newFixture(t, 10)
	ctx := f.user(t, "owner@example.com")

	rec := createRecommendation(t, f, ctx)
	if rec.CurrentVersionNumber != 1 || rec.GithubUsername != "octocat" {
		t.Fatalf("created: %+v", rec)
	}
	original := rec.Content

	if _, err := f.recs.UpdateContent(ctx, rec.ID, "# Edited\n\nShort manual body.", ""); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	res, err := f.recs.RefineKeywords(ctx, types.RefinementRequest{
		RecommendationID: rec.ID,
		IncludeKeywords:  []string{"Kubernetes"},
	})
	if err != nil {
		t.Fatalf("RefineKeywords: %v", err)
	}
	if res.VersionNumber != 3 || len(res.IncludeKeywordsUsed) != 1 {
		t.Fatalf("refine result: %+v", res)
	}

	h, err := f.recs.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	v1, _ := h.ByNumber(1)

	reverted, err := f.recs.Revert(ctx, rec.ID, v1.ID, "client preferred the first draft")
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.VersionNumber != 4 || reverted.ChangeType != types.ChangeReverted {
		t.Fatalf("reverted version: %+v", reverted)
	}
	if reverted.Content != original {
		t.Fatalf("revert content mismatch")
	}
	if reverted.SourceVersionNumber == nil || *reverted.SourceVersionNumber != 1 {
		t.Fatalf("source version: %v", reverted.SourceVersionNumber)
	}

	h, err = f.recs.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	wantKinds := []types.ChangeKind{types.ChangeCreated, types.ChangeManualEdit, types.ChangeKeywordRefinement, types.ChangeReverted}
	if h.TotalVersions != 4 || h.CurrentVersion != 4 {
		t.Fatalf("history: total=%d current=%d", h.TotalVersions, h.CurrentVersion)
	}
	for i, v := range h.Versions {
		if v.VersionNumber != i+1 || v.ChangeType != wantKinds[i] {
			t.Fatalf("version %d: want=%q got=%q (n=%d)", i+1, wantKinds[i], v.ChangeType, v.VersionNumber)
		}
	}

	got, err := f.recs.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != original || got.CurrentVersionNumber != 4 {
		t.Fatalf("head must mirror current version: n=%d", got.CurrentVersionNumber)
	}
}

func TestRevertRequiresReason(t *testing.T) {
	f := newFixture(t, 10)
	ctx := f.user(t, "reason@example.com")
	rec := createRecommendation(t, f, ctx)

	_, err := f.recs.Revert(ctx, rec.ID, uuid.New(), "   ")
	if !apierr.IsValidation(err) || apierr.FieldsOf(err)["reason"] == "" {
		t.Fatalf("want reason validation got=%v", err)
	}
	h, _ := f.recs.History(ctx, rec.ID)
	if h.TotalVersions != 1 {
		t.Fatalf("no version may be appended: total=%d", h.TotalVersions)
	}
}

func TestCompareIsAttributed(t *testing.T) {
	f := newFixture(t, 10)
	ctx := f.user(t, "cmp@example.com")
	rec := createRecommendation(t, f, ctx)
	if _, err := f.recs.UpdateContent(ctx, rec.ID, "changed body", "tweak"); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	h, _ := f.recs.History(ctx, rec.ID)
	v1, _ := h.ByNumber(1)
	v2, _ := h.ByNumber(2)

	cmp, err := f.recs.Compare(ctx, rec.ID, v2.ID, v1.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.VersionA.ID != v2.ID || cmp.VersionB.ID != v1.ID {
		t.Fatalf("comparison must keep the requested order")
	}
	d := cmp.Differences[types.FieldContent]
	if !d.Changed || d.A != "changed body" {
		t.Fatalf("content diff: %+v", d)
	}
	if cmp.Differences[types.FieldCreatedBy].Changed {
		t.Fatalf("same author must not differ")
	}

	if _, err := f.recs.Compare(ctx, rec.ID, uuid.Nil, v1.ID); !apierr.IsValidation(err) {
		t.Fatalf("missing version: want validation got=%v", err)
	}
	if _, err := f.recs.Compare(ctx, rec.ID, uuid.New(), v1.ID); apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("unknown version: want not_found got=%v", err)
	}
}

func TestOwnershipHidesOtherUsersRecommendations(t *testing.T) {
	f := newFixture(t, 10)
	owner := f.user(t, "a@example.com")
	other := f.user(t, "b@example.com")
	rec := createRecommendation(t, f, owner)

	if _, err := f.recs.Get(other, rec.ID); apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("Get: want not_found got=%v", err)
	}
	if _, err := f.recs.UpdateContent(other, rec.ID, "hijack", ""); apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("UpdateContent: want not_found got=%v", err)
	}
	if _, err := f.recs.History(context.Background(), rec.ID); !apierr.IsAuth(err) {
		t.Fatalf("anonymous: want auth error got=%v", err)
	}
}

func TestGenerateOptionsQuota(t *testing.T) {
	f := newFixture(t, 1)
	ctx := f.user(t, "quota@example.com")
	req := wire.GenerateOptionsRequest{GithubUsername: "octocat", Params: types.Params{WorkingRelationship: "pair programmed"}}

	if _, err := f.recs.GenerateOptions(ctx, req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := f.recs.GenerateOptions(ctx, req)
	e, ok := apierr.As(err)
	if !ok || e.Status != http.StatusTooManyRequests || e.Kind != apierr.KindRejected {
		t.Fatalf("want 429 rejected got=%v", err)
	}

	p, err := f.prof.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.UsedToday != 1 || p.DailyLimit != 1 || p.Remaining() != 0 {
		t.Fatalf("profile: %+v", p)
	}
}

func TestGenerateOptionsValidation(t *testing.T) {
	f := newFixture(t, 10)
	ctx := f.user(t, "val@example.com")
	_, err := f.recs.GenerateOptions(ctx, wire.GenerateOptionsRequest{GithubUsername: "not a handle!"})
	fields := apierr.FieldsOf(err)
	if fields["subject"] == "" || fields["working_relationship"] == "" {
		t.Fatalf("want subject and working_relationship fields got=%v", fields)
	}
	p, _ := f.prof.Profile(ctx)
	if p.UsedToday != 0 {
		t.Fatalf("validation failures must not consume quota: used=%d", p.UsedToday)
	}
}

func TestCreateFromOptionRejectsForeignOption(t *testing.T) {
	f := newFixture(t, 10)
	ctx := f.user(t, "foreign@example.com")
	_, err := f.recs.CreateFromOption(ctx, wire.CreateFromOptionRequest{
		GithubUsername: "octocat",
		Params:         types.Params{WorkingRelationship: "x"},
		SelectedOption: types.Option{ID: 9, Content: "body"},
		AllOptions:     []types.Option{{ID: 1, Content: "other"}},
	})
	if apierr.FieldsOf(err)["option"] == "" {
		t.Fatalf("want option field got=%v", err)
	}
}

func TestAuthTokens(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	if _, err := f.auth.CreateUser(ctx, "Login@Example.com", "password123", 5); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := f.auth.CreateUser(ctx, "login@example.com", "password123", 5); apierr.KindOf(err) != apierr.KindConflict {
		t.Fatalf("duplicate: want conflict got=%v", err)
	}
	if _, err := f.auth.CreateUser(ctx, "short@example.com", "pw", 5); apierr.FieldsOf(err)["password"] == "" {
		t.Fatalf("short password: got=%v", err)
	}

	if _, err := f.auth.IssueToken(ctx, "login@example.com", "wrong-password"); !apierr.IsAuth(err) {
		t.Fatalf("wrong password: want auth error got=%v", err)
	}
	tok, err := f.auth.IssueToken(ctx, "login@example.com", "password123")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	authed, err := f.auth.SetContextFromToken(ctx, tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if rd := ctxutil.GetRequestData(authed); rd == nil || rd.Email != "login@example.com" {
		t.Fatalf("request data: %+v", rd)
	}

	forged := NewAuthService(f.db, testutil.Logger(t), f.repos.Users, "other-secret", time.Hour)
	bad, _ := forged.IssueToken(ctx, "login@example.com", "password123")
	if _, err := f.auth.SetContextFromToken(ctx, bad); !apierr.IsAuth(err) {
		t.Fatalf("foreign signature: want auth error got=%v", err)
	}
	if _, err := f.auth.SetContextFromToken(ctx, strings.Repeat("x", 20)); !apierr.IsAuth(err) {
		t.Fatalf("garbage token: want auth error got=%v", err)
	}
}
