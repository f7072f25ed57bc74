package services

import (
	"context"
	"math"

	"farmersmarket/internal/cache"
	"farmersmarket/internal/models"
	"farmersmarket/internal/repositories"

	"github.com/rs/zerolog/log"
)

// roundRating rounds a mean rating to one decimal place.
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// summarize averages ratings; no ratings yields a zero summary.
func summarize(ratings []int) models.RatingSummary {
	if len(ratings) == 0 {
		return models.RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return models.RatingSummary{
		Average: roundRating(float64(sum) / float64(len(ratings))),
		Count:   int64(len(ratings)),
	}
}

// ratingSummaries returns a rounded summary for every id, served from
// ratingCache when possible. Cache failures fall back to the database.
func ratingSummaries(ctx context.Context, reviews repositories.ReviewRepository, ratingCache cache.RatingCache, ids []string) (map[string]models.RatingSummary, error) {
	result := make(map[string]models.RatingSummary, len(ids))
	misses := ids
	if ratingCache != nil {
		misses = make([]string, 0, len(ids))
		for _, id := range ids {
			summary, ok, err := ratingCache.Get(ctx, id)
			if err != nil {
				log.Warn().Err(err).Str("product_id", id).Msg("rating cache read failed")
			}
			if ok {
				result[id] = summary
				continue
			}
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return result, nil
	}

	raw, err := reviews.RatingSummaries(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		summary := raw[id]
		summary.Average = roundRating(summary.Average)
		result[id] = summary
		if ratingCache != nil {
			if err := ratingCache.Set(ctx, id, summary); err != nil {
				log.Warn().Err(err).Str("product_id", id).Msg("rating cache write failed")
			}
		}
	}
	return result, nil
}
