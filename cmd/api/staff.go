package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"crewgate/internal/credentials"
	"crewgate/internal/store"

	"github.com/go-chi/chi/v5"
)

type SetPINPayload struct {
	Pin string `json:"pin" validate:"required,pin"`
}

// targetStaff resolves the {staffID} URL parameter and enforces tenant
// isolation: a manager can only touch staff of their own tenant. A foreign
// staff id reads as not-found rather than forbidden so ids do not leak
// across tenants.
func (app *application) targetStaff(w http.ResponseWriter, r *http.Request) *store.Staff {
	actor := getActorFromContext(r)

	staffID, err := strconv.ParseInt(chi.URLParam(r, "staffID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid staff id"))
		return nil
	}

	staff, err := app.store.Staff.GetByID(r.Context(), staffID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r)
			return nil
		}
		app.internalServerError(w, r, err)
		return nil
	}
	if staff.TenantID != actor.Claims.TenantID {
		app.notFoundResponse(w, r)
		return nil
	}
	return staff
}

// setPINHandler creates or replaces a staff member's PIN. The write moves
// the pin_changed_at fence, so every session issued before it dies on its
// next validation.
func (app *application) setPINHandler(w http.ResponseWriter, r *http.Request) {
	staff := app.targetStaff(w, r)
	if staff == nil {
		return
	}

	var payload SetPINPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hash, err := credentials.HashPIN(payload.Pin)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Staff.SetPIN(r.Context(), staff.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("pin updated",
		"staff_id", staff.ID, "tenant_id", staff.TenantID,
		"actor_id", getActorFromContext(r).Claims.StaffID)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "pin set"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removePINHandler disables PIN login for a staff member. The fence still
// moves: outstanding sessions become stale immediately.
func (app *application) removePINHandler(w http.ResponseWriter, r *http.Request) {
	staff := app.targetStaff(w, r)
	if staff == nil {
		return
	}

	if err := app.store.Staff.RemovePIN(r.Context(), staff.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("pin removed",
		"staff_id", staff.ID, "tenant_id", staff.TenantID,
		"actor_id", getActorFromContext(r).Claims.StaffID)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "pin removed"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
