package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/gitrec/internal/config"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/remote"
	"github.com/yungbote/gitrec/internal/session"
)

var errNotLoggedIn = errors.New("not logged in; run `gitrec login` first")

// conn is a remote client bound to a logged-in session.
type conn struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *remote.Client
	session *session.State
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveAPIURL prefers the flag, then GITREC_API_URL or the stored login,
// then the config file.
func (c *cli) resolveAPIURL(cfg *config.Config, creds *credentials) string {
	if u := strings.TrimSpace(c.apiURL); u != "" {
		return u
	}
	if u := creds.APIURL(); u != "" {
		return u
	}
	return cfg.Client.APIURL
}

func (c *cli) newClient(cfg *config.Config, apiURL string, log *logger.Logger) (*remote.Client, error) {
	return remote.New(remote.Options{
		BaseURL:    apiURL,
		Timeout:    cfg.Client.Timeout.Duration,
		MaxRetries: cfg.Client.MaxRetries,
		Log:        log,
	})
}

func (c *cli) connect(ctx context.Context) (*conn, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	creds, err := openCredentials(c.credentialsPath)
	if err != nil {
		return nil, err
	}
	log := c.logger()

	client, err := c.newClient(cfg, c.resolveAPIURL(cfg, creds), log)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(c.token)
	if token == "" {
		token = creds.Token()
	}
	if token == "" {
		return nil, errNotLoggedIn
	}

	sess := session.New(client,
		session.WithMinInterval(cfg.Client.ProfileMinInterval.Duration),
		session.WithLogger(log),
	)
	client.Bind(sess)
	if err := sess.Login(ctx, token); err != nil {
		sess.Close()
		return nil, err
	}
	if !sess.LoggedIn() {
		sess.Close()
		return nil, fmt.Errorf("stored token was rejected: %w", errNotLoggedIn)
	}
	return &conn{cfg: cfg, log: log, client: client, session: sess}, nil
}

func (cn *conn) Close() {
	cn.session.Close()
}
