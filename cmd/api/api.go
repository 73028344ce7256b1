package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizboost/internal/challenge"
	"bizboost/internal/domain/storage"
	"bizboost/internal/metrics"
	"bizboost/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config      config
	store       *storage.Container
	logger      *zap.SugaredLogger
	challenges  *challenge.Issuer
	rateLimiter ratelimiter.Limiter
	metrics     *metrics.DirectoryMetrics
}

type config struct {
	addr        string
	env         string
	dataFile    string
	strictLoad  bool
	auth        authConfig
	challenge   challengeConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

type challengeConfig struct {
	enabled bool
	secret  string
	ttl     time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.MetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", userNameHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(app.UserNameMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Get("/metrics", app.metrics.Handler().ServeHTTP)

		r.Get("/categories", app.listCategoriesHandler)
		r.Get("/challenges", app.issueChallengeHandler)

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", app.listBusinessesHandler)
			r.With(app.RateLimiterMiddleware).Post("/", app.createBusinessHandler)
			r.Get("/top-rated", app.topRatedBusinessesHandler)
			r.Get("/most-reviewed", app.mostReviewedBusinessesHandler)

			r.Route("/{businessID}", func(r chi.Router) {
				r.Get("/", app.getBusinessHandler)
				r.With(app.RateLimiterMiddleware).Post("/reviews", app.createBusinessReviewHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.RequireUserName)
					r.Put("/favorite", app.addFavoriteHandler)
					r.Delete("/favorite", app.removeFavoriteHandler)
				})
			})
		})

		r.With(app.RequireUserName).Get("/favorites", app.listFavoritesHandler)
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
