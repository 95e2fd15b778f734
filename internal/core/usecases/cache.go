package usecases

import (
	"context"
	"encoding/json"

	"github.com/calorsos/calorsos/internal/core/ports"
)

// cached runs load through cache under key. A nil cache, a miss or an
// undecodable entry falls back to load; write failures are ignored.
func cached[T any](ctx context.Context, cache ports.CacheService, key string, ttlSeconds int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttlSeconds)
		}
	}
	return v, nil
}
