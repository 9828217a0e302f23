// Package cache provides Redis caching for department resolution, invalidated
// through PostgreSQL LISTEN/NOTIFY.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"easyadmin/internal/core/security"
	"easyadmin/pkg/logger"
)

// DefaultOrgTTL bounds how stale a cached department subtree can get when a
// change notification is missed.
const DefaultOrgTTL = 10 * time.Minute

// OrgCache decorates an OrgResolver with a Redis cache keyed by department and
// depth. Redis failures fall through to the wrapped resolver.
type OrgCache struct {
	next   security.OrgResolver
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewOrgCache creates an OrgCache. A non-positive ttl uses DefaultOrgTTL.
func NewOrgCache(next security.OrgResolver, client redis.UniversalClient, ttl time.Duration) *OrgCache {
	if ttl <= 0 {
		ttl = DefaultOrgTTL
	}
	return &OrgCache{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: "easyadmin:org:",
	}
}

func (c *OrgCache) key(orgID int64, below bool) string {
	depth := "own"
	if below {
		depth = "below"
	}
	return fmt.Sprintf("%s%d:%s", c.prefix, orgID, depth)
}

// ResolveOrgIDs implements security.OrgResolver.
func (c *OrgCache) ResolveOrgIDs(ctx context.Context, ident *security.Identity, role security.Role, includeDescendants bool) ([]int64, error) {
	// Only the subtree lookup touches storage.
	if ident == nil || ident.OrgID == 0 || !includeDescendants {
		return c.next.ResolveOrgIDs(ctx, ident, role, includeDescendants)
	}

	key := c.key(ident.OrgID, includeDescendants)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ids []int64
		if jsonErr := json.Unmarshal(raw, &ids); jsonErr == nil {
			return ids, nil
		}
		logger.Warn(ctx, "discarding corrupt org cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, "org cache read failed", "key", key, "error", err)
	}

	ids, err := c.next.ResolveOrgIDs(ctx, ident, role, includeDescendants)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ids)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		logger.Warn(ctx, "org cache write failed", "key", key, "error", err)
	}
	return ids, nil
}

// Invalidate drops every cached subtree.
func (c *OrgCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan org cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete org cache: %w", err)
	}
	return nil
}

var _ security.OrgResolver = (*OrgCache)(nil)
