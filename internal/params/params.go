package params

import (
	"net/url"
	"strings"
)

type SortOrder string

const (
	SortByName    SortOrder = "name"
	SortByRating  SortOrder = "rating"
	SortByReviews SortOrder = "reviews"
)

// URL: /businesses?category=Food&search=main&sort=rating
// → ParseListing() → Listing{Category:"food", Search:"main", Sort:SortByRating}
// Listing holds the filters for the business list.
type Listing struct {
	Category string    `json:"category"`
	Search   string    `json:"search"`
	Sort     SortOrder `json:"sort"`
}

// ParseListing parses ?category=...&search=...&sort=... safely. Unknown sort
// values fall back to name order. Keys are case sensitive.
func ParseListing(q url.Values) Listing {
	l := Listing{
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		Search:   strings.TrimSpace(q.Get("search")),
		Sort:     SortByName,
	}

	switch SortOrder(strings.ToLower(strings.TrimSpace(q.Get("sort")))) {
	case SortByRating:
		l.Sort = SortByRating
	case SortByReviews:
		l.Sort = SortByReviews
	}

	return l
}
