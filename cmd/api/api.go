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

	"crewgate/internal/authz"
	"crewgate/internal/kiosk"
	"crewgate/internal/metrics"
	"crewgate/internal/ratelimiter"
	"crewgate/internal/session"
	"crewgate/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config   config
	store    store.Storage
	logger   *zap.SugaredLogger
	sessions *session.Manager
	authz    *authz.Resolver
	kiosk    *kiosk.Service
	limiter  ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	frontendURL string
	db          dbConfig
	auth        authConfig
	rateLimiter rateLimiterConfig
}

type authConfig struct {
	basic   basicConfig
	session sessionConfig
}

type sessionConfig struct {
	secret     string
	iss        string
	cookieName string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type rateLimiterConfig struct {
	enabled    bool
	ipRequests int
	ipWindow   time.Duration
	redisAddr  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Handle("/metrics", metrics.Handler())
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Credential endpoints carry an extra per-IP limiter on top of the
		// purpose-keyed limits inside the kiosk service.
		r.Route("/auth", func(r chi.Router) {
			r.With(app.RateLimiterMiddleware).Post("/kiosk", app.kioskLoginHandler)
			r.With(app.RateLimiterMiddleware).Post("/staff", app.staffLoginHandler)
			r.Post("/logout", app.logoutHandler)
			r.With(app.SessionMiddleware).Get("/session", app.sessionHandler)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(app.SessionMiddleware)
			r.Route("/{staffID}/pin", func(r chi.Router) {
				r.Use(app.requireRoles(authz.RoleOwner, authz.RoleManager))
				r.Put("/", app.setPINHandler)
				r.Delete("/", app.removePINHandler)
			})
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Use(app.SessionMiddleware)
			r.Get("/{role}", app.getRolePermissionsHandler)
			r.With(app.requireRoles(authz.RoleOwner)).Put("/{role}", app.updateRolePermissionsHandler)
		})

		r.Route("/authz", func(r chi.Router) {
			r.Use(app.SessionMiddleware)
			r.Get("/route", app.routeAccessHandler)
		})
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

	app.logger.Infow("server has stopped", "addr", app.config.addr)
	return nil
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "ok",
		"env":     app.config.env,
		"version": version,
	}
	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
