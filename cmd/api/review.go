package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"bizboost/internal/domain/businesses"

	"github.com/go-chi/chi/v5"
)

// Create Review Handler
type createReviewPayload struct {
	UserName string `json:"user_name" validate:"max=80"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"max=500"`

	ChallengeToken  string `json:"challenge_token"`
	ChallengeAnswer string `json:"challenge_answer"`
}

// CreateBusinessReview godoc
//
//	@Summary		Review a business
//	@Description	Adds a 1-5 star review. The reviewer name comes from the payload or the X-User-Name header. Requires an answered arithmetic challenge.
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			businessID	path		string				true	"Business ID"
//	@Param			payload		body		createReviewPayload	true	"Review payload"
//	@Success		201			{object}	map[string]any
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Router			/businesses/{businessID}/reviews [post]
func (app *application) createBusinessReviewHandler(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userName := strings.TrimSpace(payload.UserName)
	if userName == "" {
		userName = getUserNameFromContext(r)
	}
	if userName == "" {
		app.badRequestResponse(w, r, errors.New("please enter your name"))
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.checkChallenge(w, r, payload.ChallengeToken, payload.ChallengeAnswer) {
		return
	}

	err := app.store.Businesses.AddReview(r.Context(), businessID, userName, payload.Rating, strings.TrimSpace(payload.Comment))
	switch {
	case err == nil:
	case isNotFound(err):
		app.notFoundResponse(w, r, err)
		return
	case errors.Is(err, businesses.ErrInvalidRating):
		app.badRequestResponse(w, r, err)
		return
	default:
		app.internalServerError(w, r, err)
		return
	}

	app.metrics.ObserveReview(payload.Rating)

	b, ok := app.store.Businesses.FindByID(r.Context(), businessID)
	if !ok {
		app.notFoundResponse(w, r, fmt.Errorf("%w: id=%s", businesses.ErrNotFound, businessID))
		return
	}

	response := map[string]any{
		"reviews":       b.Reviews,
		"total_reviews": b.ReviewCount(),
		"average":       math.Round(b.AverageRating()*10) / 10,
	}

	if err := app.jsonResponse(w, http.StatusCreated, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
