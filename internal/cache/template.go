// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// template.go provides a Valkey-backed cache for the default master
// template. The default template is fetched on every presentation render,
// so caching it skips the DB round trip on the hot path.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"slideforge/internal/models"
)

const (
	// defaultTemplateKey is the Valkey key holding the default template.
	defaultTemplateKey = "template:default"

	// DefaultTemplateTTL is how long the default template stays cached.
	DefaultTemplateTTL = 10 * time.Minute
)

// TemplateCache caches the default master template in Valkey. All methods
// degrade to a miss or a no-op on transport errors; the database remains
// the source of truth.
type TemplateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTemplateCache creates a template cache backed by the given Valkey client.
func NewTemplateCache(client *redis.Client, ttl time.Duration) *TemplateCache {
	if ttl == 0 {
		ttl = DefaultTemplateTTL
	}
	return &TemplateCache{client: client, ttl: ttl}
}

// GetDefault retrieves the cached default template. Returns false on miss.
func (tc *TemplateCache) GetDefault(ctx context.Context) (*models.MasterTemplate, bool) {
	val, err := tc.client.Get(ctx, defaultTemplateKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("template cache get error", "error", err)
		return nil, false
	}

	var t models.MasterTemplate
	if err := json.Unmarshal(val, &t); err != nil {
		slog.Warn("template cache decode error", "error", err)
		return nil, false
	}
	slog.Debug("template cache hit", "id", t.ID)
	return &t, true
}

// SetDefault stores the default template with the configured TTL.
func (tc *TemplateCache) SetDefault(ctx context.Context, t *models.MasterTemplate) {
	payload, err := json.Marshal(t)
	if err != nil {
		slog.Warn("template cache encode error", "error", err)
		return
	}
	if err := tc.client.Set(ctx, defaultTemplateKey, payload, tc.ttl).Err(); err != nil {
		slog.Warn("template cache set error", "error", err)
	}
}

// Invalidate removes the cached default template. Called whenever the
// default flag moves or the default template's content changes.
func (tc *TemplateCache) Invalidate(ctx context.Context) {
	if err := tc.client.Del(ctx, defaultTemplateKey).Err(); err != nil {
		slog.Warn("template cache invalidate error", "error", err)
	}
	slog.Debug("template cache invalidated")
}
