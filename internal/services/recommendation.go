package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/data/repos"
	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/generator"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/ctxutil"
	"github.com/yungbote/gitrec/internal/platform/dbctx"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/platform/markdown"
	"github.com/yungbote/gitrec/internal/quota"
	"github.com/yungbote/gitrec/internal/refine"
	"github.com/yungbote/gitrec/internal/subject"
	"github.com/yungbote/gitrec/internal/versions"
	"github.com/yungbote/gitrec/internal/wire"
	"github.com/yungbote/gitrec/internal/workflow"
)

const defaultOptionCount = 2

var (
	errRecommendationNotFound = apierr.New(http.StatusNotFound, "not_found", errors.New("recommendation not found"))
	errVersionNotFound        = apierr.New(http.StatusNotFound, "version_not_found", errors.New("version not found"))
	errUnauthenticated        = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))
)

type RecommendationService interface {
	GenerateOptions(ctx context.Context, req wire.GenerateOptionsRequest) ([]types.Option, error)
	CreateFromOption(ctx context.Context, req wire.CreateFromOptionRequest) (*types.Recommendation, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Recommendation, error)
	List(ctx context.Context, limit int) ([]*types.Recommendation, error)
	History(ctx context.Context, id uuid.UUID) (types.History, error)
	Compare(ctx context.Context, id, versionA, versionB uuid.UUID) (types.Comparison, error)
	Revert(ctx context.Context, id, versionID uuid.UUID, reason string) (*types.Version, error)
	RefineKeywords(ctx context.Context, req types.RefinementRequest) (types.RefinementResult, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content, description string) (*types.Recommendation, error)
}

type recommendationService struct {
	log          *logger.Logger
	repos        repos.Set
	engine       generator.Engine
	quota        quota.Store
	defaultLimit int
	optionCount  int
}

func NewRecommendationService(
	log *logger.Logger,
	reposet repos.Set,
	engine generator.Engine,
	quotaStore quota.Store,
	defaultLimit int,
	optionCount int,
) RecommendationService {
	if optionCount <= 0 {
		optionCount = defaultOptionCount
	}
	return &recommendationService{
		log:          log.With("service", "RecommendationService", "engine", engine.Name()),
		repos:        reposet,
		engine:       engine,
		quota:        quotaStore,
		defaultLimit: defaultLimit,
		optionCount:  optionCount,
	}
}

func caller(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, errUnauthenticated
	}
	return id, nil
}

// effectiveLimit resolves a user's stored limit; zero defers to the server default.
func effectiveLimit(u *types.User, def int) int {
	if u != nil && u.DailyLimit != 0 {
		return u.DailyLimit
	}
	return def
}

// engineError keeps caller cancellation intact and reports everything else as
// an upstream failure.
func engineError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	return apierr.New(http.StatusBadGateway, "engine_failed", fmt.Errorf("%s: %w", op, err))
}

func validateInput(githubUsername string, p types.Params) (string, error) {
	if fields := workflow.Validate(workflow.Input{Subject: githubUsername, Params: p}); fields != nil {
		return "", apierr.ServerValidation(fields)
	}
	subj, err := subject.Parse(githubUsername)
	if err != nil {
		return "", apierr.ServerValidation(apierr.Fields{workflow.FieldSubject: err.Error()})
	}
	return subj.String(), nil
}

func (s *recommendationService) GenerateOptions(ctx context.Context, req wire.GenerateOptionsRequest) ([]types.Option, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	handle, err := validateInput(req.GithubUsername, req.Params)
	if err != nil {
		return nil, err
	}

	u, err := s.repos.Users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	limit := effectiveLimit(u, s.defaultLimit)
	used, err := s.quota.Consume(ctx, userID, limit)
	if errors.Is(err, quota.ErrExceeded) {
		return nil, apierr.New(http.StatusTooManyRequests, "daily_limit", fmt.Errorf("daily limit of %d generations reached", limit))
	}
	if err != nil {
		return nil, fmt.Errorf("consume quota: %w", err)
	}

	drafts, err := s.engine.Options(ctx, generator.OptionsRequest{
		GithubUsername: handle,
		Params:         req.Params.WithDefaults(),
		Count:          s.optionCount,
		Instructions:   strings.TrimSpace(req.RegenerateInstructions),
	})
	if err != nil {
		return nil, engineError(ctx, "generate options", err)
	}
	opts := generator.ToOptions(drafts)
	if len(opts) == 0 {
		return nil, apierr.New(http.StatusBadGateway, "engine_empty", errors.New("engine returned no options"))
	}
	s.log.Info("options generated", "user_id", userID, "subject", handle, "count", len(opts), "used_today", used)
	return opts, nil
}

func (s *recommendationService) CreateFromOption(ctx context.Context, req wire.CreateFromOptionRequest) (*types.Recommendation, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	handle, err := validateInput(req.GithubUsername, req.Params)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.SelectedOption.Content)
	if content == "" {
		return nil, apierr.ServerValidation(apierr.Fields{workflow.FieldOption: "selected option has no content"})
	}
	if len(req.AllOptions) > 0 {
		if _, ok := types.FindOption(req.AllOptions, req.SelectedOption.ID); !ok {
			return nil, apierr.ServerValidation(apierr.Fields{workflow.FieldOption: "selected option is not one of the generated options"})
		}
	}

	params := req.Params.WithDefaults()
	rec := &types.Recommendation{
		ID:                uuid.New(),
		UserID:            userID,
		GithubUsername:    handle,
		Params:            params,
		SelectedOptionID:  req.SelectedOption.ID,
		GenerationOptions: req.AllOptions,
	}
	err = s.repos.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.repos.Recommendations.Create(dbc, rec); err != nil {
			return fmt.Errorf("create recommendation: %w", err)
		}
		_, err := s.appendVersion(dbc, rec, versionDraft{
			Content:     content,
			Kind:        types.ChangeCreated,
			Description: fmt.Sprintf("Created from option %d (%s)", req.SelectedOption.ID, req.SelectedOption.Focus),
			Actor:       userID,
			Confidence:  generator.LengthConfidence(markdown.WordCount(content), params.Length),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recommendationService) Get(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadOwned(dbctx.Context{Ctx: ctx}, id, userID, false)
}

func (s *recommendationService) List(ctx context.Context, limit int) ([]*types.Recommendation, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.repos.Recommendations.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (s *recommendationService) History(ctx context.Context, id uuid.UUID) (types.History, error) {
	userID, err := caller(ctx)
	if err != nil {
		return types.History{}, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.loadOwned(dbc, id, userID, false)
	if err != nil {
		return types.History{}, err
	}
	list, err := s.repos.Versions.ListByRecommendation(dbc, rec.ID)
	if err != nil {
		return types.History{}, fmt.Errorf("list versions: %w", err)
	}
	return types.History{
		RecommendationID: rec.ID,
		TotalVersions:    len(list),
		CurrentVersion:   rec.CurrentVersionNumber,
		Versions:         list,
	}, nil
}

func (s *recommendationService) Compare(ctx context.Context, id, versionA, versionB uuid.UUID) (types.Comparison, error) {
	userID, err := caller(ctx)
	if err != nil {
		return types.Comparison{}, err
	}
	fields := apierr.Fields{}
	if versionA == uuid.Nil {
		fields[versions.FieldVersionA] = "version is required"
	}
	if versionB == uuid.Nil {
		fields[versions.FieldVersionB] = "version is required"
	}
	if len(fields) > 0 {
		return types.Comparison{}, apierr.ServerValidation(fields)
	}

	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.loadOwned(dbc, id, userID, false)
	if err != nil {
		return types.Comparison{}, err
	}
	a, err := s.repos.Versions.GetByID(dbc, rec.ID, versionA)
	if err != nil {
		return types.Comparison{}, fmt.Errorf("load version a: %w", err)
	}
	b, err := s.repos.Versions.GetByID(dbc, rec.ID, versionB)
	if err != nil {
		return types.Comparison{}, fmt.Errorf("load version b: %w", err)
	}
	if a == nil || b == nil {
		return types.Comparison{}, errVersionNotFound
	}
	return versions.Compare(*a, *b), nil
}

func (s *recommendationService) Revert(ctx context.Context, id, versionID uuid.UUID, reason string) (*types.Version, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	fields := apierr.Fields{}
	if versionID == uuid.Nil {
		fields[versions.FieldVersionID] = "version is required"
	}
	if reason == "" {
		fields[versions.FieldReason] = "a reason is required"
	}
	if len(fields) > 0 {
		return nil, apierr.ServerValidation(fields)
	}

	var appended *types.Version
	err = s.repos.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		rec, err := s.loadOwned(dbc, id, userID, true)
		if err != nil {
			return err
		}
		target, err := s.repos.Versions.GetByID(dbc, rec.ID, versionID)
		if err != nil {
			return fmt.Errorf("load target version: %w", err)
		}
		if target == nil {
			return errVersionNotFound
		}
		source := target.VersionNumber
		appended, err = s.appendVersion(dbc, rec, versionDraft{
			Content:     target.Content,
			Kind:        types.ChangeReverted,
			Description: fmt.Sprintf("Reverted to version %d: %s", target.VersionNumber, reason),
			Actor:       userID,
			Source:      &source,
			Confidence:  target.ConfidenceScore,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

func (s *recommendationService) RefineKeywords(ctx context.Context, req types.RefinementRequest) (types.RefinementResult, error) {
	userID, err := caller(ctx)
	if err != nil {
		return types.RefinementResult{}, err
	}
	req = refine.Normalize(req)
	if fields := refine.Validate(req); fields != nil {
		return types.RefinementResult{}, apierr.ServerValidation(fields)
	}

	rec, err := s.loadOwned(dbctx.Context{Ctx: ctx}, req.RecommendationID, userID, false)
	if err != nil {
		return types.RefinementResult{}, err
	}
	draft, err := s.engine.Refine(ctx, generator.RefineRequest{
		GithubUsername: rec.GithubUsername,
		Params:         rec.Params,
		Content:        rec.Content,
		Include:        req.IncludeKeywords,
		Exclude:        req.ExcludeKeywords,
		Instructions:   req.Instructions,
	})
	if err != nil {
		return types.RefinementResult{}, engineError(ctx, "refine", err)
	}
	content := strings.TrimSpace(draft.Content)
	if content == "" {
		return types.RefinementResult{}, apierr.New(http.StatusBadGateway, "engine_empty", errors.New("engine returned empty content"))
	}

	used, avoided, issues := generator.Audit(content, req.IncludeKeywords, req.ExcludeKeywords)
	summary := generator.Summary(used, avoided, req.Instructions, issues)
	baseVersion := rec.CurrentVersionNumber

	var appended *types.Version
	err = s.repos.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		locked, err := s.loadOwned(dbc, rec.ID, userID, true)
		if err != nil {
			return err
		}
		if locked.CurrentVersionNumber != baseVersion {
			return apierr.New(http.StatusConflict, "version_conflict",
				fmt.Errorf("recommendation moved from version %d to %d during refinement", baseVersion, locked.CurrentVersionNumber))
		}
		appended, err = s.appendVersion(dbc, locked, versionDraft{
			Content:     content,
			Kind:        types.ChangeKeywordRefinement,
			Description: summary,
			Actor:       userID,
			Confidence:  generator.Confidence(draft, rec.Params.Length),
		})
		return err
	})
	if err != nil {
		return types.RefinementResult{}, err
	}

	return types.RefinementResult{
		RefinedContent:         appended.Content,
		Title:                  titleFor(appended.Content, rec),
		WordCount:              appended.WordCount,
		IncludeKeywordsUsed:    used,
		ExcludeKeywordsAvoided: avoided,
		RefinementSummary:      summary,
		ValidationIssues:       issues,
		VersionNumber:          appended.VersionNumber,
	}, nil
}

func (s *recommendationService) UpdateContent(ctx context.Context, id uuid.UUID, content, description string) (*types.Recommendation, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierr.ServerValidation(apierr.Fields{"content": "content is required"})
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Manual edit"
	}

	var rec *types.Recommendation
	err = s.repos.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		rec, err = s.loadOwned(dbc, id, userID, true)
		if err != nil {
			return err
		}
		_, err = s.appendVersion(dbc, rec, versionDraft{
			Content:     content,
			Kind:        types.ChangeManualEdit,
			Description: description,
			Actor:       userID,
			Confidence:  generator.LengthConfidence(markdown.WordCount(content), rec.Params.Length),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// loadOwned hides other users' recommendations behind a not-found error.
func (s *recommendationService) loadOwned(dbc dbctx.Context, id, userID uuid.UUID, lock bool) (*types.Recommendation, error) {
	var (
		rec *types.Recommendation
		err error
	)
	if lock {
		rec, err = s.repos.Recommendations.GetForUpdate(dbc, id)
	} else {
		rec, err = s.repos.Recommendations.GetByID(dbc, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if rec == nil || rec.UserID != userID {
		return nil, errRecommendationNotFound
	}
	return rec, nil
}
