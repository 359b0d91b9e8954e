package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/metrics"
	"paper-birthdays/models"
)

const dayKeyPrefix = "papers:day:"

// NewRedisClient verbindet sich mit REDIS_URL. Ohne URL kommt nil zurück (Cache aus).
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// paperReader ist die Sicht, die der Cache dekoriert.
type paperReader interface {
	PapersByMonthDay(ctx context.Context, monthDay string) ([]models.Paper, error)
	SearchTitles(ctx context.Context, query string, limit int) ([]models.Paper, error)
	PaperByID(ctx context.Context, id string) (models.Paper, error)
	Stats(ctx context.Context) (models.PaperStats, error)
}

// cachedPaper nimmt die rohen Fachgebiete mit, die im API-JSON ausgeblendet sind.
type cachedPaper struct {
	models.Paper
	Tags []string `json:"fields_of_study"`
}

// CachedPapers legt Tageslisten mit TTL in Redis ab. Redis-Fehler werden geloggt
// und fallen auf den Store zurück.
type CachedPapers struct {
	Next   paperReader
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachedPapers dekoriert next mit dem Tages-Cache.
func NewCachedPapers(next paperReader, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedPapers {
	return &CachedPapers{Next: next, Client: client, TTL: ttl, Logger: logger}
}

// PapersByMonthDay liest zuerst aus Redis.
func (c *CachedPapers) PapersByMonthDay(ctx context.Context, monthDay string) ([]models.Paper, error) {
	key := dayKeyPrefix + monthDay
	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []cachedPaper
		if uerr := json.Unmarshal(raw, &cached); uerr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			papers := make([]models.Paper, len(cached))
			for i, cp := range cached {
				papers[i] = cp.Paper
				papers[i].FieldsOfStudy = cp.Tags
			}
			return papers, nil
		}
		c.Logger.Warn("Discarding corrupt cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.Logger.Warn("Redis read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	papers, err := c.Next.PapersByMonthDay(ctx, monthDay)
	if err != nil {
		return nil, err
	}
	cached := make([]cachedPaper, len(papers))
	for i, p := range papers {
		cached[i] = cachedPaper{Paper: p, Tags: p.FieldsOfStudy}
	}
	if body, err := json.Marshal(cached); err == nil {
		if err := c.Client.Set(ctx, key, body, c.TTL).Err(); err != nil {
			c.Logger.Warn("Redis write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return papers, nil
}

// SearchTitles wird nicht gecacht.
func (c *CachedPapers) SearchTitles(ctx context.Context, query string, limit int) ([]models.Paper, error) {
	return c.Next.SearchTitles(ctx, query, limit)
}

// PaperByID wird nicht gecacht.
func (c *CachedPapers) PaperByID(ctx context.Context, id string) (models.Paper, error) {
	return c.Next.PaperByID(ctx, id)
}

// Stats wird nicht gecacht.
func (c *CachedPapers) Stats(ctx context.Context) (models.PaperStats, error) {
	return c.Next.Stats(ctx)
}
