package businesses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bizboost/internal/db"

	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

const (
	idAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength      = 8
	maxIDAttempts = 16
)

var ErrIDSpaceExhausted = errors.New("could not generate a unique business id")

// DocumentStore is the durable side of the repository.
type DocumentStore interface {
	Exists() (bool, error)
	Read() (*db.Document, error)
	Write(doc *db.Document) error
}

type Options struct {
	// StrictLoad turns an unreadable data file into a load error instead of
	// an empty directory.
	StrictLoad bool

	IDGenerator func() string
	Clock       func() time.Time
}

// Repository keeps every business in memory and writes the whole directory
// through to the DocumentStore after each mutation.
type Repository struct {
	mu         sync.RWMutex
	docs       DocumentStore
	logger     *zap.SugaredLogger
	businesses []*Business
	favorites  Favorites
	newID      func() string
	now        func() time.Time
}

func newRepository(docs DocumentStore, logger *zap.SugaredLogger, opts Options) (*Repository, error) {
	newID := opts.IDGenerator
	if newID == nil {
		gen, err := nanoid.CustomASCII(idAlphabet, idLength)
		if err != nil {
			return nil, fmt.Errorf("init id generator: %w", err)
		}
		newID = gen
	}

	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Repository{
		docs:       docs,
		logger:     logger,
		businesses: []*Business{},
		favorites:  Favorites{},
		newID:      newID,
		now:        now,
	}, nil
}

// AddBusiness stores a new business under a fresh id. Required fields are the
// caller's responsibility.
func (r *Repository) AddBusiness(ctx context.Context, in NewBusinessInput) (*Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.uniqueIDLocked()
	if err != nil {
		return nil, err
	}

	b := NewBusiness(id, in, r.now())
	r.businesses = append(r.businesses, b)

	if err := r.persistLocked(); err != nil {
		r.businesses = r.businesses[:len(r.businesses)-1]
		return nil, fmt.Errorf("add business: %w", err)
	}

	r.logger.Infow("business added", "business_id", b.ID, "category", b.Category)
	return b.Clone(), nil
}

func (r *Repository) uniqueIDLocked() (string, error) {
	for range maxIDAttempts {
		id := r.newID()
		if r.findLocked(id) == nil {
			return id, nil
		}
		r.logger.Warnw("business id collision, retrying", "business_id", id)
	}
	return "", ErrIDSpaceExhausted
}

func (r *Repository) findLocked(businessID string) *Business {
	for _, b := range r.businesses {
		if b.ID == businessID {
			return b
		}
	}
	return nil
}

// FindByID never errors; ok is false when no business has that id.
func (r *Repository) FindByID(ctx context.Context, businessID string) (*Business, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b := r.findLocked(businessID)
	if b == nil {
		return nil, false
	}
	return b.Clone(), true
}

func (r *Repository) List(ctx context.Context) []*Business {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterLocked(func(*Business) bool { return true })
}

func (r *Repository) ListByCategory(ctx context.Context, category string) []*Business {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category = strings.ToLower(category)
	return r.filterLocked(func(b *Business) bool {
		return strings.ToLower(b.Category) == category
	})
}

// ListCategories returns the distinct categories in ascending order.
func (r *Repository) ListCategories(ctx context.Context) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := []string{}
	for _, b := range r.businesses {
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		categories = append(categories, b.Category)
	}
	sort.Strings(categories)
	return categories
}

// Search matches the term against name, category and address, ignoring case.
func (r *Repository) Search(ctx context.Context, term string) []*Business {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(term)
	return r.filterLocked(func(b *Business) bool {
		return strings.Contains(strings.ToLower(b.Name), term) ||
			strings.Contains(strings.ToLower(b.Category), term) ||
			strings.Contains(strings.ToLower(b.Address), term)
	})
}

func (r *Repository) filterLocked(keep func(*Business) bool) []*Business {
	out := []*Business{}
	for _, b := range r.businesses {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

// SortByRating orders by average rating. Businesses without reviews count as 0.
// Equal ratings keep store order.
func (r *Repository) SortByRating(ctx context.Context, descending bool) []*Business {
	return r.sortedBy(func(b *Business) float64 { return b.AverageRating() }, descending)
}

func (r *Repository) SortByReviewCount(ctx context.Context, descending bool) []*Business {
	return r.sortedBy(func(b *Business) float64 { return float64(b.ReviewCount()) }, descending)
}

func (r *Repository) sortedBy(key func(*Business) float64, descending bool) []*Business {
	r.mu.RLock()
	list := r.filterLocked(func(*Business) bool { return true })
	r.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		if descending {
			return key(list[i]) > key(list[j])
		}
		return key(list[i]) < key(list[j])
	})
	return list
}

// AddReview appends a verified review. Unknown ids and out-of-range ratings
// are rejected before anything changes.
func (r *Repository) AddReview(ctx context.Context, businessID, userName string, rating int, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.findLocked(businessID)
	if b == nil {
		return fmt.Errorf("%w: id=%s", ErrNotFound, businessID)
	}

	n := len(b.Reviews)
	if err := b.AddReview(userName, rating, comment, true, r.now()); err != nil {
		return err
	}

	if err := r.persistLocked(); err != nil {
		b.Reviews = b.Reviews[:n]
		return fmt.Errorf("add review: %w", err)
	}
	return nil
}

// AddFavorite is idempotent; the file is only rewritten when the list changed.
func (r *Repository) AddFavorite(ctx context.Context, userName, businessID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.favorites[userName]
	set := r.favorites.entry(userName)
	if !set.Add(businessID) {
		return nil
	}

	if err := r.persistLocked(); err != nil {
		set.Remove(businessID)
		if !existed {
			delete(r.favorites, userName)
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite is a no-op when the id is not in the user's list. The user's
// entry stays even when it becomes empty.
func (r *Repository) RemoveFavorite(ctx context.Context, userName, businessID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.favorites[userName]
	if !ok {
		return nil
	}

	before := set.Items()
	if !set.Remove(businessID) {
		return nil
	}

	if err := r.persistLocked(); err != nil {
		r.favorites[userName] = NewOrderedSet(before...)
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListFavorites resolves the user's ids in favorite order, skipping ids whose
// business no longer exists.
func (r *Repository) ListFavorites(ctx context.Context, userName string) []*Business {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Business{}
	set, ok := r.favorites[userName]
	if !ok {
		return out
	}
	for _, id := range set.Items() {
		if b := r.findLocked(id); b != nil {
			out = append(out, b.Clone())
		}
	}
	return out
}

func (r *Repository) IsFavorite(ctx context.Context, userName, businessID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.favorites[userName]
	return ok && set.Contains(businessID)
}

// Save writes the full directory to the document store.
func (r *Repository) Save(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.persistLocked()
}

func (r *Repository) persistLocked() error {
	if err := r.docs.Write(r.snapshotLocked()); err != nil {
		r.logger.Errorw("failed to persist directory", "error", err)
		return err
	}
	return nil
}
