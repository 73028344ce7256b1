package businesses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("business not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

const (
	MinRating = 1
	MaxRating = 5
)

// Deal is a promotional offer attached to a business. Expires is free text.
type Deal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Expires     string `json:"expires"`
}

type Review struct {
	UserName string    `json:"user_name"`
	Rating   int       `json:"rating"` // 1-5
	Comment  string    `json:"comment"`
	Verified bool      `json:"verified"`
	Date     time.Time `json:"date"`
}

// Business represents a directory entry
type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Description string    `json:"description"`
	Deals       []Deal    `json:"deals"`
	Reviews     []Review  `json:"reviews"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewBusinessInput is what the handler passes in
type NewBusinessInput struct {
	Name        string
	Category    string
	Address     string
	Phone       string
	Description string
	Deals       []Deal
}

// NewBusiness builds a business with a normalized category and empty reviews.
func NewBusiness(id string, in NewBusinessInput, now time.Time) *Business {
	deals := make([]Deal, len(in.Deals))
	copy(deals, in.Deals)

	return &Business{
		ID:          id,
		Name:        in.Name,
		Category:    strings.ToLower(in.Category),
		Address:     in.Address,
		Phone:       in.Phone,
		Description: in.Description,
		Deals:       deals,
		Reviews:     []Review{},
		CreatedAt:   now,
	}
}

// AddReview appends a review. The rating is checked before anything changes.
func (b *Business) AddReview(userName string, rating int, comment string, verified bool, now time.Time) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	b.Reviews = append(b.Reviews, Review{
		UserName: userName,
		Rating:   rating,
		Comment:  comment,
		Verified: verified,
		Date:     now,
	})
	return nil
}

// AverageRating returns the mean of all ratings, or 0 when there are none.
func (b *Business) AverageRating() float64 {
	if len(b.Reviews) == 0 {
		return 0
	}

	sum := 0
	for _, r := range b.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(b.Reviews))
}

func (b *Business) ReviewCount() int {
	return len(b.Reviews)
}

// Clone returns a deep copy so callers can never mutate store-owned data.
func (b *Business) Clone() *Business {
	c := *b
	c.Deals = append([]Deal{}, b.Deals...)
	c.Reviews = append([]Review{}, b.Reviews...)
	return &c
}

// BusinessDetail extends Business with the aggregation fields from reviews.
type BusinessDetail struct {
	*Business
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	IsFavorite    bool    `json:"is_favorite"`
}

type Store interface {
	AddBusiness(ctx context.Context, in NewBusinessInput) (*Business, error)
	FindByID(ctx context.Context, businessID string) (*Business, bool)
	List(ctx context.Context) []*Business
	ListByCategory(ctx context.Context, category string) []*Business
	ListCategories(ctx context.Context) []string
	Search(ctx context.Context, term string) []*Business
	SortByRating(ctx context.Context, descending bool) []*Business
	SortByReviewCount(ctx context.Context, descending bool) []*Business

	AddReview(ctx context.Context, businessID, userName string, rating int, comment string) error

	// ... favourite businesses
	AddFavorite(ctx context.Context, userName, businessID string) error
	RemoveFavorite(ctx context.Context, userName, businessID string) error
	ListFavorites(ctx context.Context, userName string) []*Business
	IsFavorite(ctx context.Context, userName, businessID string) bool

	Save(ctx context.Context) error
}
