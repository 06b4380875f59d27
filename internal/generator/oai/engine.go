// Package oai implements generator.Engine on the OpenAI chat completions API.
package oai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yungbote/gitrec/internal/generator"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxRetries is passed to the SDK. Negative means the SDK default.
	MaxRetries int
}

type Engine struct {
	model   string
	timeout time.Duration
	client  openai.Client
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key missing")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{
		model:   cfg.Model,
		timeout: timeout,
		client:  openai.NewClient(opts...),
		log:     log.With("engine", "openai", "model", cfg.Model),
	}, nil
}

func (e *Engine) Name() string { return "openai:" + e.model }

func (e *Engine) Options(ctx context.Context, req generator.OptionsRequest) ([]generator.Draft, error) {
	raw, err := e.complete(ctx, generator.BuildOptionsPrompt(req))
	if err != nil {
		return nil, err
	}
	var out struct {
		Options []generator.Draft `json:"options"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if len(out.Options) == 0 {
		return nil, errors.New("openai: no options in response")
	}
	if req.Count > 0 && len(out.Options) > req.Count {
		out.Options = out.Options[:req.Count]
	}
	return out.Options, nil
}

func (e *Engine) Refine(ctx context.Context, req generator.RefineRequest) (generator.Draft, error) {
	raw, err := e.complete(ctx, generator.BuildRefinePrompt(req))
	if err != nil {
		return generator.Draft{}, err
	}
	var d generator.Draft
	if err := decodeJSON(raw, &d); err != nil {
		return generator.Draft{}, fmt.Errorf("decode refinement: %w", err)
	}
	if strings.TrimSpace(d.Content) == "" {
		return generator.Draft{}, errors.New("openai: empty refinement")
	}
	return d, nil
}

func (e *Engine) complete(ctx context.Context, p generator.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
	})
	if err != nil {
		e.log.Warn("chat completion failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	e.log.Debug("chat completion", "duration_ms", time.Since(start).Milliseconds(), "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// decodeJSON tolerates a fenced code block or prose around the JSON object.
func decodeJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}
	return json.Unmarshal([]byte(s), v)
}
