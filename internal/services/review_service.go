package services

import (
	"context"
	"errors"

	"farmersmarket/internal/cache"
	"farmersmarket/internal/models"
	"farmersmarket/internal/repositories"

	"github.com/rs/zerolog/log"
)

// ReviewService handles product reviews and farmers' rating views.
type ReviewService struct {
	reviews  repositories.ReviewRepository
	products repositories.ProductRepository
	ratings  cache.RatingCache // optional
}

// NewReviewService creates a new ReviewService. ratings may be nil.
func NewReviewService(reviews repositories.ReviewRepository, products repositories.ProductRepository, ratings cache.RatingCache) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		ratings:  ratings,
	}
}

// FarmerReviews is every review a farmer received and their mean rating.
type FarmerReviews struct {
	Reviews     []models.Review `json:"reviews"`
	AvgRating   float64         `json:"avg_rating"`
	ReviewCount int64           `json:"review_count"`
}

// HasReviewed reports whether the customer already reviewed productID.
func (s *ReviewService) HasReviewed(ctx context.Context, customer models.CustomerAccount, productID string) (bool, error) {
	_, err := s.reviews.GetByCustomerAndProduct(ctx, customer.ID(), productID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// AddReview records the customer's single review of a product. The
// product's farmer is copied onto the review.
func (s *ReviewService) AddReview(ctx context.Context, customer models.CustomerAccount, productID string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.HasReviewed(ctx, customer, productID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	review := &models.Review{
		ProductID:  product.ID,
		CustomerID: customer.ID(),
		FarmerID:   product.FarmerID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// the unique index catches a concurrent duplicate the pre-check missed
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	if s.ratings != nil {
		if err := s.ratings.Invalidate(ctx, productID); err != nil {
			log.Warn().Err(err).Str("product_id", productID).Msg("rating cache invalidation failed")
		}
	}
	log.Info().Str("review_id", review.ID).Str("product_id", productID).Int("rating", rating).Msg("review added")
	return review, nil
}

// FarmerReviews returns the reviews the farmer received with their products
// and authors, and the mean rating over all of them.
func (s *ReviewService) FarmerReviews(ctx context.Context, farmer models.FarmerAccount) (*FarmerReviews, error) {
	reviews, err := s.reviews.ListByFarmer(ctx, farmer.ID())
	if err != nil {
		return nil, err
	}
	ratings := make([]int, len(reviews))
	for i, r := range reviews {
		ratings[i] = r.Rating
	}
	summary := summarize(ratings)
	return &FarmerReviews{Reviews: reviews, AvgRating: summary.Average, ReviewCount: summary.Count}, nil
}

// CountReceived returns how many reviews the farmer received.
func (s *ReviewService) CountReceived(ctx context.Context, farmer models.FarmerAccount) (int64, error) {
	return s.reviews.CountByFarmer(ctx, farmer.ID())
}
