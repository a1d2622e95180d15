// Package cache keeps rendered review pages per business. Every write to a
// business bumps its generation counter, which orphans all cached pages for it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Observer is notified of cache events (hit, miss, set, invalidate, error).
type Observer func(event string)

// ReviewPages caches list pages per business.
type ReviewPages interface {
	// Get loads the cached page into dst. It reports false on a miss and
	// returns the generation it looked in.
	Get(ctx context.Context, businessID string, page int, dst any) (int64, bool, error)
	// Set stores v under generation gen, as returned by the Get that missed.
	// A page read before an Invalidate is thus never visible after it.
	Set(ctx context.Context, businessID string, gen int64, page int, v any) error
	// Invalidate drops every cached page of the business.
	Invalidate(ctx context.Context, businessID string) error
}

// Redis implements ReviewPages with versioned keys.
type Redis struct {
	c       *redis.Client
	ttl     time.Duration
	observe Observer
}

// NewRedis wraps an existing client. A nil observer is allowed.
func NewRedis(c *redis.Client, ttl time.Duration, observe Observer) *Redis {
	if observe == nil {
		observe = func(string) {}
	}
	return &Redis{c: c, ttl: ttl, observe: observe}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

func versionKey(businessID string) string {
	return fmt.Sprintf("reviews:%s:ver", businessID)
}

func pageKey(businessID string, version int64, page int) string {
	return fmt.Sprintf("reviews:%s:v%d:p%d", businessID, version, page)
}

func (r *Redis) version(ctx context.Context, businessID string) (int64, error) {
	v, err := r.c.Get(ctx, versionKey(businessID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *Redis) Get(ctx context.Context, businessID string, page int, dst any) (int64, bool, error) {
	ver, err := r.version(ctx, businessID)
	if err != nil {
		r.observe("error")
		return 0, false, err
	}
	b, err := r.c.Get(ctx, pageKey(businessID, ver, page)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.observe("miss")
		return ver, false, nil
	}
	if err != nil {
		r.observe("error")
		return ver, false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		r.observe("error")
		return ver, false, fmt.Errorf("decode cached page: %w", err)
	}
	r.observe("hit")
	return ver, true, nil
}

func (r *Redis) Set(ctx context.Context, businessID string, gen int64, page int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	r.observe("set")
	return r.c.Set(ctx, pageKey(businessID, gen, page), b, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, businessID string) error {
	r.observe("invalidate")
	return r.c.Incr(ctx, versionKey(businessID)).Err()
}

// Noop never stores anything. It is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, int, any) (int64, bool, error) { return 0, false, nil }
func (Noop) Set(context.Context, string, int64, int, any) error        { return nil }
func (Noop) Invalidate(context.Context, string) error                  { return nil }
