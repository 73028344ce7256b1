package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type userNameKey string

const (
	userNameCtx    userNameKey = "user_name"
	userNameHeader             = "X-User-Name"
	maxUserNameLen             = 80
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if username == "" || len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserNameMiddleware puts the caller's display name on the context. The name
// is free text chosen by the visitor; there is no account behind it.
func (app *application) UserNameMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := normalizeUserName(r.Header.Get(userNameHeader))
		if name == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userNameCtx, name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// normalizeUserName trims the name and caps it at maxUserNameLen characters.
// Invalid UTF-8 is replaced up front so the favorites key survives a JSON
// round trip unchanged.
func normalizeUserName(raw string) string {
	name := strings.TrimSpace(strings.ToValidUTF8(raw, "\uFFFD"))
	if utf8.RuneCountInString(name) > maxUserNameLen {
		name = strings.TrimSpace(string([]rune(name)[:maxUserNameLen]))
	}
	return name
}

func (app *application) RequireUserName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getUserNameFromContext(r) == "" {
			app.badRequestResponse(w, r, fmt.Errorf("please enter your name first (%s header)", userNameHeader))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getUserNameFromContext(r *http.Request) string {
	if name, ok := r.Context().Value(userNameCtx).(string); ok {
		return name
	}
	return ""
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				app.metrics.RateLimitedTotal.Inc()
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// MetricsMiddleware records latency labelled by route pattern, not raw path.
func (app *application) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		app.metrics.ObserveRequest(r.Method, route, status, time.Since(start).Seconds())
	})
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
