package main

import (
	"errors"
	"net/http"
	"strings"

	"bizboost/internal/challenge"
)

// IssueChallenge godoc
//
//	@Summary		Get a verification question
//	@Description	Returns a small sum and a signed token. Submit both the token and the answer with a new business or review.
//	@Tags			Challenges
//	@Produce		json
//	@Success		200	{object}	challenge.Challenge
//	@Failure		500	{object}	error
//	@Router			/challenges [get]
func (app *application) issueChallengeHandler(w http.ResponseWriter, r *http.Request) {
	c, err := app.challenges.Issue()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

const envProduction = "production"

// checkChallenge writes the error response itself and reports whether the
// request may continue.
func (app *application) checkChallenge(w http.ResponseWriter, r *http.Request, token, answer string) bool {
	if !app.config.challenge.enabled && app.config.env != envProduction {
		if strings.TrimSpace(token) == "" {
			app.logger.Debugw("challenge skipped (disabled) and token missing",
				"env", app.config.env,
				"ip", clientIP(r),
			)
		}
		return true
	}

	if err := app.challenges.Verify(token, answer); err != nil {
		if errors.Is(err, challenge.ErrChallengeFailed) {
			app.metrics.ChallengeFailuresTotal.Inc()
			app.badRequestResponse(w, r, challenge.ErrChallengeFailed)
			return false
		}
		app.internalServerError(w, r, err)
		return false
	}
	return true
}
