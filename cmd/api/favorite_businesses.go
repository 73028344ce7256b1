package main

import (
	"fmt"
	"net/http"

	"bizboost/internal/domain/businesses"

	"github.com/go-chi/chi/v5"
)

// AddFavoriteBusiness godoc
//
//	@Summary		Add a business to favorites
//	@Description	Adds a business to the favorites of the name in X-User-Name. Adding twice is a no-op.
//	@Tags			Favorite_Businesses
//	@Produce		json
//	@Param			businessID	path		string				true	"Business ID"
//	@Success		200			{object}	map[string]string	"Business added to favorites"
//	@Failure		400			{object}	error				"Bad Request: missing user name"
//	@Failure		404			{object}	error				"Not Found: unknown business"
//	@Failure		500			{object}	error				"Internal Server Error: Could not add favorite"
//	@Router			/businesses/{businessID}/favorite [put]
func (app *application) addFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	user := getUserNameFromContext(r)

	// The store accepts any id; unknown ones are rejected here.
	if _, ok := app.store.Businesses.FindByID(r.Context(), businessID); !ok {
		app.notFoundResponse(w, r, fmt.Errorf("%w: id=%s", businesses.ErrNotFound, businessID))
		return
	}

	if err := app.store.Businesses.AddFavorite(r.Context(), user, businessID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.metrics.FavoritesChangedTotal.WithLabelValues("add").Inc()
	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "business added to favorites"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RemoveFavoriteBusiness godoc
//
//	@Summary		Remove a business from favorites
//	@Description	Removing a business that is not a favorite is a no-op.
//	@Tags			Favorite_Businesses
//	@Produce		json
//	@Param			businessID	path		string				true	"Business ID"
//	@Success		200			{object}	map[string]string	"Business removed from favorites"
//	@Failure		400			{object}	error				"Bad Request: missing user name"
//	@Failure		500			{object}	error				"Internal Server Error: Could not remove favorite"
//	@Router			/businesses/{businessID}/favorite [delete]
func (app *application) removeFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	user := getUserNameFromContext(r)

	if err := app.store.Businesses.RemoveFavorite(r.Context(), user, businessID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.metrics.FavoritesChangedTotal.WithLabelValues("remove").Inc()
	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "business removed from favorites"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListFavoriteBusinesses godoc
//
//	@Summary		Retrieve user's favorite businesses
//	@Tags			Favorite_Businesses
//	@Produce		json
//	@Success		200	{array}		businesses.BusinessDetail	"List of favorite businesses"
//	@Failure		400	{object}	error						"Bad Request: missing user name"
//	@Router			/favorites [get]
func (app *application) listFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	favorites := app.store.Businesses.ListFavorites(r.Context(), getUserNameFromContext(r))

	if err := app.jsonResponse(w, http.StatusOK, app.toDetails(r, favorites)); err != nil {
		app.internalServerError(w, r, err)
	}
}
