package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/gitrec/internal/app"
	"github.com/yungbote/gitrec/internal/config"
	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

type cliEnv struct {
	apiURL      string
	credentials string
}

func startAPI(t *testing.T) cliEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("GITREC_API_URL", "")
	t.Setenv("GITREC_TOKEN", "")

	cfg := config.Default()
	cfg.Env = "test"
	cfg.DB.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.Auth.JWTSecret = "cli-test-secret"

	a, err := app.New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.Services.Auth.CreateUser(context.Background(), "cli@example.com", "password123", 0)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Server.Engine)
	t.Cleanup(srv.Close)

	return cliEnv{
		apiURL:      srv.URL,
		credentials: filepath.Join(t.TempDir(), "credentials.yaml"),
	}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--credentials", e.credentials, "--api-url", e.apiURL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
	return v
}

func TestCLIRecommendationLifecycle(t *testing.T) {
	env := startAPI(t)

	_, err := env.run(t, "login", "--email", "cli@example.com", "--password", "password123")
	require.NoError(t, err)
	raw, err := os.ReadFile(env.credentials)
	require.NoError(t, err)
	require.Contains(t, string(raw), "token:")

	out, err := env.run(t, "profile", "--json")
	require.NoError(t, err)
	profile := decode[domain.Profile](t, out)
	require.Equal(t, "cli@example.com", profile.Email)

	out, err = env.run(t, "generate",
		"--subject", "octocat",
		"--relationship", "We co-maintained the CLI for two years.",
		"--tone", "friendly",
	)
	require.NoError(t, err)
	require.Contains(t, out, "=== Option 1")
	require.Contains(t, out, "--pick")

	out, err = env.run(t, "generate",
		"--subject", "https://github.com/octocat",
		"--relationship", "We co-maintained the CLI for two years.",
		"--pick", "2",
		"--json",
	)
	require.NoError(t, err)
	rec := decode[domain.Recommendation](t, out)
	require.Equal(t, 1, rec.CurrentVersionNumber)
	require.Equal(t, 2, rec.SelectedOptionID)
	id := rec.ID.String()

	out, err = env.run(t, "refine", id, "--include", "Kubernetes, Go", "--json")
	require.NoError(t, err)
	refined := decode[domain.RefinementResult](t, out)
	require.Contains(t, refined.RefinedContent, "Kubernetes")

	_, err = env.run(t, "revert", id, "1")
	require.Error(t, err)
	require.True(t, apierr.IsValidation(err), "want validation error, got %v", err)
	require.Equal(t, 2, exitCode(err))

	out, err = env.run(t, "revert", id, "1", "--reason", "keyword version reads stiff", "--json")
	require.NoError(t, err)
	h := decode[domain.History](t, out)
	require.Equal(t, 3, h.TotalVersions)
	require.Equal(t, 3, h.CurrentVersion)
	require.Equal(t, domain.ChangeReverted, h.Versions[2].ChangeType)
	require.Equal(t, h.Versions[0].Content, h.Versions[2].Content)

	out, err = env.run(t, "history", id)
	require.NoError(t, err)
	require.Contains(t, out, "keyword_refinement")
	require.Contains(t, out, "3 *")

	out, err = env.run(t, "compare", id, "1", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Version 1 vs version 3")
	require.Contains(t, out, "content: identical")

	editFile := filepath.Join(t.TempDir(), "edit.md")
	require.NoError(t, os.WriteFile(editFile, []byte("# Recommendation\n\nOctocat is a careful reviewer."), 0o600))
	out, err = env.run(t, "edit", id, "--file", editFile)
	require.NoError(t, err)
	require.Contains(t, out, "Saved version 4")

	out, err = env.run(t, "show", id, "--html")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Recommendation</h1>")
}

func TestCLIRequiresLogin(t *testing.T) {
	env := startAPI(t)
	_, err := env.run(t, "history", uuid.NewString())
	require.ErrorIs(t, err, errNotLoggedIn)
	require.Equal(t, 3, exitCode(err))

	_, err = env.run(t, "--token", "not-a-jwt", "profile")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLIValidationErrorsListFields(t *testing.T) {
	env := startAPI(t)
	_, err := env.run(t, "login", "--email", "cli@example.com", "--password", "password123")
	require.NoError(t, err)

	_, err = env.run(t, "generate", "--subject", "", "--relationship", "")
	require.Error(t, err)
	msg := describeError(err)
	require.True(t, strings.HasPrefix(msg, "invalid input"), msg)
	require.Contains(t, msg, "subject:")
	require.Contains(t, msg, "working_relationship:")
}

func TestUserCreate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gitrec.yaml")
	dbPath := filepath.Join(dir, "gitrec.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db:\n  driver: sqlite\n  dsn: "+dbPath+"\n"), 0o600))

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	out, err := run("user", "create", "--email", "New@Example.com", "--password", "password123", "--daily-limit", "5", "--json")
	require.NoError(t, err)
	u := decode[domain.User](t, out)
	require.Equal(t, "new@example.com", u.Email)
	require.Equal(t, 5, u.DailyLimit)

	_, err = run("user", "create", "--email", "new@example.com", "--password", "password123")
	require.Error(t, err)
	require.True(t, apierr.IsKind(err, apierr.KindConflict), "want conflict, got %v", err)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, exitCode(nil))
	require.Equal(t, 2, exitCode(apierr.Validation(apierr.Fields{"x": "bad"})))
	require.Equal(t, 3, exitCode(apierr.Wrap(apierr.KindAuthentication, errNotLoggedIn)))
	require.Equal(t, 1, exitCode(apierr.Wrap(apierr.KindServer, os.ErrClosed)))
}
