package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crewgate/internal/authz"
	"crewgate/internal/metrics"
	"crewgate/internal/store"
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 ||
				subtle.ConstantTimeCompare([]byte(creds[0]), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(creds[1]), []byte(pass)) != 1 {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware performs the full two-step session validation: the
// token's structure, signature and expiry first, then a fresh credential
// read so a PIN change or deactivation after issuance invalidates the
// session on its next use.
func (app *application) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(app.config.auth.session.cookieName)
		if err != nil || cookie.Value == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("missing session cookie"))
			return
		}

		claims, err := app.sessions.Validate(cookie.Value)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := r.Context()

		staff, err := app.store.Staff.GetByID(ctx, claims.StaffID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				app.unauthorizedErrorResponse(w, r, fmt.Errorf("staff no longer exists"))
				return
			}
			app.internalServerError(w, r, err)
			return
		}
		if !staff.IsActive || staff.TenantID != claims.TenantID {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("staff no longer active in tenant"))
			return
		}

		if !claims.FreshAgainst(staff.PINChangedAt) {
			metrics.StaleSessions.Inc()
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("session predates a pin change"))
			return
		}

		role, err := authz.ParseRole(claims.Role)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx = context.WithValue(ctx, sessionCtx, &actorContext{Claims: claims, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles is the action guard: authenticated actors whose role is not
// in the allow list get a hard 403.
func (app *application) requireRoles(roles ...authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := getActorFromContext(r)
			if actor == nil {
				app.unauthorizedErrorResponse(w, r, fmt.Errorf("no session in context"))
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			app.forbiddenResponse(w, r)
		})
	}
}

// RateLimiterMiddleware gates credential endpoints per client IP.
func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.rateLimiter.enabled {
			next.ServeHTTP(w, r)
			return
		}

		res, err := app.limiter.Check(r.Context(), "ip:"+r.RemoteAddr,
			app.config.rateLimiter.ipRequests, app.config.rateLimiter.ipWindow)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		if !res.Allowed {
			metrics.RateLimited.WithLabelValues("ip").Inc()
			app.rateLimitExceededResponse(w, r, time.Until(res.ResetAt))
			return
		}
		next.ServeHTTP(w, r)
	})
}
