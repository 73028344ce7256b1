package businesses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizboost/internal/db"

	"go.uber.org/zap"
)

// starterBusinesses seed a data file that does not exist yet.
var starterBusinesses = []NewBusinessInput{
	{
		Name:        "Joe's Coffee House",
		Category:    "food",
		Address:     "123 Main St, Downtown",
		Phone:       "555-0101",
		Description: "Cozy local coffee shop with artisanal brews and fresh pastries. Family-owned since 2010.",
		Deals:       []Deal{{Title: "Buy 2 Get 1 Free", Description: "Any coffee drinks", Expires: "2024-12-31"}},
	},
	{
		Name:        "Green Thumb Garden Center",
		Category:    "retail",
		Address:     "456 Oak Ave, Garden District",
		Phone:       "555-0102",
		Description: "Family-owned garden center with expert advice and quality plants. Your one-stop shop for all gardening needs.",
		Deals:       []Deal{{Title: "20% Off All Seeds", Description: "Valid this month", Expires: "2024-12-31"}},
	},
	{
		Name:        "Quick Fix Auto Repair",
		Category:    "services",
		Address:     "789 Industrial Blvd",
		Phone:       "555-0103",
		Description: "Honest and reliable auto repair service. We've been serving the community for over 20 years.",
		Deals:       []Deal{{Title: "Free Oil Change", Description: "With any major service", Expires: "2024-12-31"}},
	},
	{
		Name:        "Mama's Italian Kitchen",
		Category:    "food",
		Address:     "321 Elm St, Little Italy",
		Phone:       "555-0104",
		Description: "Authentic Italian cuisine made with love. Traditional recipes passed down through generations.",
		Deals:       []Deal{{Title: "10% Off Dinner", Description: "Monday-Thursday", Expires: "2024-12-31"}},
	},
	{
		Name:        "The Book Nook",
		Category:    "retail",
		Address:     "654 Pine St, Arts Quarter",
		Phone:       "555-0105",
		Description: "Independent bookstore with curated selection of new and used books. Weekly book clubs and author events.",
		Deals:       []Deal{{Title: "Buy 2 Get 1 Free", Description: "All paperback books", Expires: "2024-12-31"}},
	},
}

// Load builds a repository from the document store.
//
// A missing file is seeded with the starter businesses and written right away.
// A file that cannot be read or decoded yields an empty directory unless
// opts.StrictLoad is set, in which case the error is returned.
func Load(ctx context.Context, docs DocumentStore, logger *zap.SugaredLogger, opts Options) (*Repository, error) {
	r, err := newRepository(docs, logger, opts)
	if err != nil {
		return nil, err
	}

	exists, err := docs.Exists()
	if err != nil {
		return r.loadFailed(err, opts.StrictLoad)
	}

	if !exists {
		if err := r.seed(); err != nil {
			return nil, err
		}
		logger.Infow("data file not found, seeded starter businesses", "businesses", len(r.businesses))
		return r, nil
	}

	doc, err := docs.Read()
	if err != nil {
		return r.loadFailed(err, opts.StrictLoad)
	}

	r.businesses = businessesFromRecords(doc.Businesses, r.now, logger)
	for user, ids := range doc.UserFavorites {
		r.favorites[user] = NewOrderedSet(ids...)
	}

	logger.Infow("directory loaded", "businesses", len(r.businesses), "users", len(r.favorites))
	return r, nil
}

func (r *Repository) loadFailed(err error, strict bool) (*Repository, error) {
	if strict {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	r.logger.Errorw("error loading data, starting with an empty directory", "error", err)
	r.businesses = []*Business{}
	r.favorites = Favorites{}
	return r, nil
}

func (r *Repository) seed() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, in := range starterBusinesses {
		id, err := r.uniqueIDLocked()
		if err != nil {
			return err
		}
		r.businesses = append(r.businesses, NewBusiness(id, in, r.now()))
	}

	if err := r.persistLocked(); err != nil {
		return fmt.Errorf("seed directory: %w", err)
	}
	return nil
}

func (r *Repository) snapshotLocked() *db.Document {
	doc := &db.Document{
		Businesses:    make([]db.BusinessRecord, 0, len(r.businesses)),
		UserFavorites: r.favorites.Snapshot(),
	}
	for _, b := range r.businesses {
		doc.Businesses = append(doc.Businesses, toRecord(b))
	}
	return doc
}

func toRecord(b *Business) db.BusinessRecord {
	rec := db.BusinessRecord{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		Address:     b.Address,
		Phone:       b.Phone,
		Description: b.Description,
		Deals:       make([]db.DealRecord, 0, len(b.Deals)),
		Reviews:     make([]db.ReviewRecord, 0, len(b.Reviews)),
		CreatedAt:   db.FormatTimestamp(b.CreatedAt),
	}
	for _, d := range b.Deals {
		rec.Deals = append(rec.Deals, db.DealRecord(d))
	}
	for _, rv := range b.Reviews {
		rec.Reviews = append(rec.Reviews, db.ReviewRecord{
			UserName: rv.UserName,
			Rating:   rv.Rating,
			Comment:  rv.Comment,
			Verified: rv.Verified,
			Date:     db.FormatTimestamp(rv.Date),
		})
	}
	return rec
}

// businessesFromRecords never fails: a timestamp it cannot read falls back to
// load time (created_at) or the zero time (review date), and stored ratings
// are kept as they are.
func businessesFromRecords(records []db.BusinessRecord, now func() time.Time, logger *zap.SugaredLogger) []*Business {
	out := make([]*Business, 0, len(records))
	for _, rec := range records {
		b := &Business{
			ID:          rec.ID,
			Name:        rec.Name,
			Category:    strings.ToLower(rec.Category),
			Address:     rec.Address,
			Phone:       rec.Phone,
			Description: rec.Description,
			Deals:       make([]Deal, 0, len(rec.Deals)),
			Reviews:     make([]Review, 0, len(rec.Reviews)),
			CreatedAt:   now(),
		}

		if rec.CreatedAt != "" {
			if ts, err := db.ParseTimestamp(rec.CreatedAt); err == nil {
				b.CreatedAt = ts
			} else {
				logger.Warnw("unreadable created_at, using load time", "business_id", rec.ID, "error", err)
			}
		}

		for _, d := range rec.Deals {
			b.Deals = append(b.Deals, Deal(d))
		}
		for i, rv := range rec.Reviews {
			review := Review{
				UserName: rv.UserName,
				Rating:   rv.Rating,
				Comment:  rv.Comment,
				Verified: rv.Verified,
			}
			if rv.Rating < MinRating || rv.Rating > MaxRating {
				logger.Warnw("stored rating out of range", "business_id", rec.ID, "review", i, "rating", rv.Rating)
			}
			if rv.Date != "" {
				if ts, err := db.ParseTimestamp(rv.Date); err == nil {
					review.Date = ts
				} else {
					logger.Warnw("unreadable review date", "business_id", rec.ID, "review", i, "error", err)
				}
			}
			b.Reviews = append(b.Reviews, review)
		}

		out = append(out, b)
	}
	return out
}
