package main

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"bizboost/internal/domain/businesses"
	"bizboost/internal/params"

	"github.com/go-chi/chi/v5"
)

type dealPayload struct {
	Title       string `json:"title" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=300"`
	Expires     string `json:"expires" validate:"max=40"`
}

type createBusinessPayload struct {
	Name        string        `json:"name" validate:"required,notblank,max=120"`
	Category    string        `json:"category" validate:"required,notblank,max=50"`
	Address     string        `json:"address" validate:"required,notblank,max=200"`
	Phone       string        `json:"phone" validate:"max=30"`
	Description string        `json:"description" validate:"max=1000"`
	Deals       []dealPayload `json:"deals" validate:"max=10,dive"`

	ChallengeToken  string `json:"challenge_token"`
	ChallengeAnswer string `json:"challenge_answer"`
}

func (app *application) toDetail(r *http.Request, b *businesses.Business) businesses.BusinessDetail {
	return businesses.BusinessDetail{
		Business:      b,
		TotalReviews:  b.ReviewCount(),
		AverageRating: b.AverageRating(),
		IsFavorite:    app.isFavorite(r, b.ID),
	}
}

func (app *application) toDetails(r *http.Request, list []*businesses.Business) []businesses.BusinessDetail {
	out := make([]businesses.BusinessDetail, 0, len(list))
	for _, b := range list {
		out = append(out, app.toDetail(r, b))
	}
	return out
}

func (app *application) isFavorite(r *http.Request, businessID string) bool {
	user := getUserNameFromContext(r)
	if user == "" {
		return false
	}
	return app.store.Businesses.IsFavorite(r.Context(), user, businessID)
}

// ListBusinesses godoc
//
//	@Summary		List businesses
//	@Description	Lists businesses filtered by category and free-text search, sorted by name, rating or review count.
//	@Tags			Businesses
//	@Produce		json
//	@Param			category	query		string	false	"category (case-insensitive)"
//	@Param			search		query		string	false	"substring of name, category or address"
//	@Param			sort		query		string	false	"name|rating|reviews (default name)"
//	@Success		200			{array}		businesses.BusinessDetail
//	@Router			/businesses [get]
func (app *application) listBusinessesHandler(w http.ResponseWriter, r *http.Request) {
	listing := params.ParseListing(r.URL.Query())
	ctx := r.Context()
	repo := app.store.Businesses

	var ordered []*businesses.Business
	switch listing.Sort {
	case params.SortByRating:
		ordered = reviewedFirst(repo.SortByRating(ctx, true))
	case params.SortByReviews:
		ordered = repo.SortByReviewCount(ctx, true)
	default:
		ordered = repo.List(ctx)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Name < ordered[j].Name
		})
	}

	var matched []*businesses.Business
	if listing.Category != "" {
		matched = repo.ListByCategory(ctx, listing.Category)
	} else {
		matched = repo.List(ctx)
	}
	if listing.Search != "" {
		found := map[string]struct{}{}
		for _, b := range repo.Search(ctx, listing.Search) {
			found[b.ID] = struct{}{}
		}
		matched = filter(matched, func(b *businesses.Business) bool {
			_, ok := found[b.ID]
			return ok
		})
	}

	keep := make(map[string]struct{}, len(matched))
	for _, b := range matched {
		keep[b.ID] = struct{}{}
	}

	result := filter(ordered, func(b *businesses.Business) bool {
		_, ok := keep[b.ID]
		return ok
	})

	if err := app.jsonResponse(w, http.StatusOK, app.toDetails(r, result)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// TopRatedBusinesses godoc
//
//	@Summary		Top rated businesses
//	@Description	Businesses with at least one review, best average rating first.
//	@Tags			Businesses
//	@Produce		json
//	@Success		200	{array}	businesses.BusinessDetail
//	@Router			/businesses/top-rated [get]
func (app *application) topRatedBusinessesHandler(w http.ResponseWriter, r *http.Request) {
	list := filter(app.store.Businesses.SortByRating(r.Context(), true), func(b *businesses.Business) bool {
		return b.ReviewCount() > 0
	})

	if err := app.jsonResponse(w, http.StatusOK, app.toDetails(r, list)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) mostReviewedBusinessesHandler(w http.ResponseWriter, r *http.Request) {
	list := app.store.Businesses.SortByReviewCount(r.Context(), true)

	if err := app.jsonResponse(w, http.StatusOK, app.toDetails(r, list)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetBusiness godoc
//
//	@Summary		Business detail
//	@Description	Returns one business with deals, reviews, rating summary and whether the caller marked it as favorite.
//	@Tags			Businesses
//	@Produce		json
//	@Param			businessID	path		string	true	"Business ID"
//	@Success		200			{object}	businesses.BusinessDetail
//	@Failure		404			{object}	error
//	@Router			/businesses/{businessID} [get]
func (app *application) getBusinessHandler(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")

	b, ok := app.store.Businesses.FindByID(r.Context(), businessID)
	if !ok {
		app.notFoundResponse(w, r, businesses.ErrNotFound)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.toDetail(r, b)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CreateBusiness godoc
//
//	@Summary		Submit a new business
//	@Description	Public route. Adds a business to the directory. Requires an answered arithmetic challenge from GET /challenges.
//	@Tags			Businesses
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createBusinessPayload	true	"Business payload"
//	@Success		201		{object}	businesses.BusinessDetail
//	@Failure		400		{object}	error
//	@Failure		429		{object}	error
//	@Failure		500		{object}	error
//	@Router			/businesses [post]
func (app *application) createBusinessHandler(w http.ResponseWriter, r *http.Request) {
	var payload createBusinessPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.checkChallenge(w, r, payload.ChallengeToken, payload.ChallengeAnswer) {
		return
	}

	in := businesses.NewBusinessInput{
		Name:        strings.TrimSpace(payload.Name),
		Category:    strings.TrimSpace(payload.Category),
		Address:     strings.TrimSpace(payload.Address),
		Phone:       strings.TrimSpace(payload.Phone),
		Description: strings.TrimSpace(payload.Description),
	}
	for _, d := range payload.Deals {
		in.Deals = append(in.Deals, businesses.Deal{
			Title:       strings.TrimSpace(d.Title),
			Description: strings.TrimSpace(d.Description),
			Expires:     strings.TrimSpace(d.Expires),
		})
	}

	created, err := app.store.Businesses.AddBusiness(r.Context(), in)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.metrics.BusinessesCreatedTotal.WithLabelValues(created.Category).Inc()
	app.logger.Infow("business submitted", "business_id", created.ID, "ip", clientIP(r))

	if err := app.jsonResponse(w, http.StatusCreated, app.toDetail(r, created)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListCategories godoc
//
//	@Summary		List categories
//	@Tags			Businesses
//	@Produce		json
//	@Success		200	{array}	string
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories := app.store.Businesses.ListCategories(r.Context())

	if err := app.jsonResponse(w, http.StatusOK, categories); err != nil {
		app.internalServerError(w, r, err)
	}
}

// reviewedFirst moves businesses without reviews behind the reviewed ones,
// keeping the relative order inside both groups.
func reviewedFirst(list []*businesses.Business) []*businesses.Business {
	reviewed := filter(list, func(b *businesses.Business) bool { return b.ReviewCount() > 0 })
	unreviewed := filter(list, func(b *businesses.Business) bool { return b.ReviewCount() == 0 })
	return append(reviewed, unreviewed...)
}

func filter(list []*businesses.Business, keep func(*businesses.Business) bool) []*businesses.Business {
	out := []*businesses.Business{}
	for _, b := range list {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, businesses.ErrNotFound)
}
