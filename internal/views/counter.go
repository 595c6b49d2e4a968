package views

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/repository"
)

const pendingPrefix = "views:pending:"

// Counter records image views best-effort. Bump never blocks the serving path
// and never surfaces an error; counts buffer in redis and a periodic Flush
// folds them into the database. Counts are approximate: a crash can drop
// buffered increments.
type Counter struct {
	cache  *redis.Client
	images *repository.ImageRepository
	log    zerolog.Logger
}

func NewCounter(cache *redis.Client, images *repository.ImageRepository, log zerolog.Logger) *Counter {
	return &Counter{
		cache:  cache,
		images: images,
		log:    log,
	}
}

// Bump fires a background increment and returns immediately.
func (c *Counter) Bump(imageID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if c.cache != nil {
			err := c.cache.Incr(ctx, pendingPrefix+imageID).Err()
			if err == nil {
				return
			}
			c.log.Warn().Err(err).Str("image_id", imageID).Msg("redis view bump failed, falling back to db")
		}

		if err := c.images.IncrementViews(ctx, imageID, 1); err != nil {
			c.log.Warn().Err(err).Str("image_id", imageID).Msg("view count increment dropped")
		}
	}()
}

// Flush moves buffered counts into the database. Keys are consumed with
// GETDEL so concurrent bumps land in the next window.
func (c *Counter) Flush(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}

	iter := c.cache.Scan(ctx, 0, pendingPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		imageID := strings.TrimPrefix(key, pendingPrefix)

		count, err := c.cache.GetDel(ctx, key).Int64()
		if err != nil {
			if err != redis.Nil {
				c.log.Warn().Err(err).Str("key", key).Msg("read pending views failed")
			}
			continue
		}
		if count <= 0 {
			continue
		}

		if err := c.images.IncrementViews(ctx, imageID, count); err != nil {
			c.log.Warn().Err(err).Str("image_id", imageID).Int64("count", count).Msg("flush views failed")
			// Re-buffer so the counts are not lost to a transient db error.
			if rerr := c.cache.IncrBy(ctx, key, count).Err(); rerr != nil {
				c.log.Warn().Err(rerr).Str("key", key).Msg("re-buffer views failed, counts dropped")
			}
		}
	}
	return iter.Err()
}
