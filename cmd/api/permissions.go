package main

import (
	"errors"
	"fmt"
	"net/http"

	"crewgate/internal/authz"

	"github.com/go-chi/chi/v5"
)

type UpdatePermissionsPayload struct {
	AllowedRoutes  []string `json:"allowed_routes" validate:"required"`
	AllowedActions []string `json:"allowed_actions" validate:"required"`
}

// getRolePermissionsHandler returns the effective grant set for a role in
// the actor's tenant: the stored override when one exists, the built-in
// defaults otherwise.
func (app *application) getRolePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	actor := getActorFromContext(r)

	role, err := authz.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	perms, err := app.authz.EffectivePermissions(r.Context(), actor.Claims.TenantID, role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, perms); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateRolePermissionsHandler overwrites a role's permissions for the
// actor's tenant. The router already restricted this to the owner role; the
// resolver additionally refuses to touch owner itself and rejects patterns
// outside the known vocabulary.
func (app *application) updateRolePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	actor := getActorFromContext(r)

	role, err := authz.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdatePermissionsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.authz.UpdateOverride(r.Context(), actor.Claims.TenantID, role, authz.Override{
		Routes:  payload.AllowedRoutes,
		Actions: payload.AllowedActions,
	})
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrOwnerImmutable),
			errors.Is(err, authz.ErrInvalidRoute),
			errors.Is(err, authz.ErrInvalidAction):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("role permissions updated",
		"tenant_id", actor.Claims.TenantID, "role", role,
		"actor_id", actor.Claims.StaffID)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "permissions updated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// routeAccessHandler is the page-guard check consulted by the shell
// application before rendering a screen. Denial is a normal answer here,
// not an error: the shell redirects to its safe default landing page.
func (app *application) routeAccessHandler(w http.ResponseWriter, r *http.Request) {
	actor := getActorFromContext(r)

	route := r.URL.Query().Get("path")
	if route == "" || route[0] != '/' {
		app.badRequestResponse(w, r, fmt.Errorf("path query parameter must be an absolute route"))
		return
	}

	allowed, err := app.authz.CanAccessRoute(r.Context(), actor.Claims.TenantID, actor.Role, route)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{"route": route, "allowed": allowed}); err != nil {
		app.internalServerError(w, r, err)
	}
}
