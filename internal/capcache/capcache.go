// Package capcache caches map server capabilities documents. Capabilities are
// static project configuration, unlike parcel metadata, which is never cached.
package capcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Store is a TTL'd byte store keyed by capability key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

// New selects a store by driver name: "memory", "redis" or "none".
func New(ctx context.Context, driver, redisAddr string, ttl time.Duration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemory(64, ttl), nil
	case "redis":
		return NewRedis(ctx, redisAddr, ttl)
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown capcache driver %q", driver)
	}
}

// Key builds the cache key for one project's capabilities. The server URL is
// hashed so keys stay short and free of URL characters.
func Key(project, serverURL string) string {
	p := sanitize(project)
	sum := xxhash.Sum64String(strings.TrimSpace(serverURL))
	return fmt.Sprintf("capabilities:%s:u=%016x", p, sum)
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range strings.TrimSpace(s) {
		out := r
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = '_'
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// Noop never stores anything; every lookup is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
