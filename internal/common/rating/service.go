// internal/common/rating/service.go
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
)

const averagesCacheKey = "rating:averages"

// Service validates submissions and serves averages, optionally cached in Redis.
type Service struct {
	store    Store
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewService builds a Service. A nil cache or a zero TTL disables caching.
func NewService(store Store, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.With(map[string]interface{}{"component": "rating-service"}),
	}
}

func (s *Service) Submit(ctx context.Context, record Record) error {
	if record.Place == "" {
		return apperrors.NewInvalidRatingCommandError("empty place name")
	}
	if record.Score < MinScore || record.Score > MaxScore {
		return apperrors.NewInvalidRatingCommandError(fmt.Sprintf("score %v out of range", record.Score))
	}

	if err := s.store.Append(ctx, record); err != nil {
		return err
	}
	metrics.RatingsSubmitted.Inc()

	if s.cacheEnabled() {
		if err := s.cache.Del(ctx, averagesCacheKey).Err(); err != nil {
			s.logger.Warn("failed to invalidate averages cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("rating submitted", map[string]interface{}{
		"place": record.Place,
		"score": record.Score,
	})
	return nil
}

// Averages returns the mean score per place.
func (s *Service) Averages(ctx context.Context) (map[string]float64, error) {
	avgs, err := s.sorted(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(avgs))
	for _, a := range avgs {
		out[a.Place] = a.Score
	}
	return out, nil
}

// Top returns the n best places by average score.
func (s *Service) Top(ctx context.Context, n int) ([]Average, error) {
	avgs, err := s.sorted(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(avgs) > n {
		avgs = avgs[:n]
	}
	return avgs, nil
}

func (s *Service) sorted(ctx context.Context) ([]Average, error) {
	if s.cacheEnabled() {
		if val, err := s.cache.Get(ctx, averagesCacheKey).Result(); err == nil {
			var cached []Average
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}

	records, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	avgs := ComputeAverages(records)

	if s.cacheEnabled() {
		if data, err := json.Marshal(avgs); err == nil {
			s.cache.Set(ctx, averagesCacheKey, data, s.cacheTTL)
		}
	}
	return avgs, nil
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}
