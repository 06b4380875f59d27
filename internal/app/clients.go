package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/gitrec/internal/config"
	"github.com/yungbote/gitrec/internal/generator"
	"github.com/yungbote/gitrec/internal/generator/mock"
	"github.com/yungbote/gitrec/internal/generator/oai"
	"github.com/yungbote/gitrec/internal/observability"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/quota"
)

type Clients struct {
	Engine generator.Engine
	Quota  quota.Store

	redisQuota *quota.RedisStore
}

func wireClients(log *logger.Logger, cfg *config.Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	engine, err := newEngine(log, cfg.Engine)
	if err != nil {
		return Clients{}, fmt.Errorf("init engine: %w", err)
	}
	if metrics != nil {
		engine = generator.Instrument(engine, metrics)
	}

	// Redis
	var (
		store      quota.Store
		redisStore *quota.RedisStore
	)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rs, err := quota.NewRedisStore(log, quota.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis quota: %w", err)
		}
		store, redisStore = rs, rs
	} else {
		log.Warn("REDIS_ADDR not set; daily limits are tracked in memory")
		store = quota.NewMemoryStore(nil)
	}

	return Clients{Engine: engine, Quota: store, redisQuota: redisStore}, nil
}

func newEngine(log *logger.Logger, cfg config.EngineConfig) (generator.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "mock":
		return mock.New(), nil
	case "openai":
		return oai.New(oai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout.Duration,
			MaxRetries: -1,
		}, log)
	default:
		return nil, fmt.Errorf("unknown engine type %q", cfg.Type)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.redisQuota != nil {
		_ = c.redisQuota.Close()
	}
}
