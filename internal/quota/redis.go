package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/gitrec/internal/platform/logger"
)

// consumeScript increments the counter unless it already reached the limit.
// It returns the new count, or -1 when the limit was hit.
var consumeScript = goredis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if limit > 0 and used >= limit then
  return -1
end
used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return used
`)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RedisStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(log *logger.Logger, opts RedisOptions) (*RedisStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "gitrec:quota"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		log:    log.With("service", "RedisQuotaStore"),
		rdb:    rdb,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

func (s *RedisStore) key(userID uuid.UUID) string {
	return s.prefix + ":" + userID.String() + ":" + dayKey(s.now())
}

func (s *RedisStore) Consume(ctx context.Context, userID uuid.UUID, limit int) (int, error) {
	res, err := consumeScript.Run(ctx, s.rdb, []string{s.key(userID)}, limit, int((48 * time.Hour).Seconds())).Int()
	if err != nil {
		return 0, fmt.Errorf("quota consume: %w", err)
	}
	if res < 0 {
		used, _ := s.Used(ctx, userID)
		return used, ErrExceeded
	}
	return res, nil
}

func (s *RedisStore) Used(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.rdb.Get(ctx, s.key(userID)).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota used: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
