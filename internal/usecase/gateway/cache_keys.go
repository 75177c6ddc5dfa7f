package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"roadportal/internal/domain/gis"
	"roadportal/internal/ports"
)

const (
	generationKey = "public_feed:generation"
	feedTTL       = 10 * time.Minute
)

// InvalidateFeed rotates the generation embedded in every public cache key so
// entries written before the change are never read again.
func InvalidateFeed(ctx context.Context, cache ports.Cache) error {
	if cache == nil {
		return nil
	}
	return cache.Set(ctx, generationKey, uuid.NewString(), 0)
}

func currentGeneration(ctx context.Context, cache ports.Cache) (string, error) {
	gen, found, err := cache.Get(ctx, generationKey)
	if err != nil {
		return "", err
	}
	if found && gen != "" {
		return gen, nil
	}
	gen = uuid.NewString()
	if err := cache.Set(ctx, generationKey, gen, 0); err != nil {
		return "", err
	}
	return gen, nil
}

func feedKey(gen string, filter gis.Filter, bounds orb.Bound, hasBounds bool) string {
	if !hasBounds {
		return fmt.Sprintf("public_feed:%s:%s:all", gen, filter)
	}
	return fmt.Sprintf(
		"public_feed:%s:%s:%.6f,%.6f,%.6f,%.6f",
		gen, filter, bounds.Min.Lon(), bounds.Min.Lat(), bounds.Max.Lon(), bounds.Max.Lat(),
	)
}

func publishedKey(gen string) string {
	return "public_publications:" + gen
}
