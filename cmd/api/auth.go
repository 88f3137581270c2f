package main

import (
	"errors"
	"net/http"

	"crewgate/internal/credentials"
	"crewgate/internal/kiosk"
	"crewgate/internal/session"
)

type KioskLoginPayload struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
	Pin      string `json:"pin" validate:"required,pin"`
}

type StaffLoginPayload struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
	StaffID  int64  `json:"staff_id" validate:"required,min=1"`
	Pin      string `json:"pin" validate:"required,pin"`
}

// setSessionCookie hands the signed token to the browser. HttpOnly keeps it
// away from scripts; Lax keeps it off cross-site POSTs.
func (app *application) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.config.auth.session.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(session.TTL.Seconds()),
	})
}

func (app *application) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.config.auth.session.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// kioskLoginHandler authenticates a shared terminal: tenant context plus a
// PIN, no claimed identity.
func (app *application) kioskLoginHandler(w http.ResponseWriter, r *http.Request) {
	var payload KioskLoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity, err := app.kiosk.IdentifyAndAuthenticate(r.Context(), payload.TenantID, payload.Pin)
	if err != nil {
		app.authFailureResponse(w, r, err)
		return
	}

	app.setSessionCookie(w, identity.Token)
	if err := app.jsonResponse(w, http.StatusOK, identity); err != nil {
		app.internalServerError(w, r, err)
	}
}

// staffLoginHandler is the claimed-identity path ("switch user"): the staff
// id is already known, so exactly one credential is checked.
func (app *application) staffLoginHandler(w http.ResponseWriter, r *http.Request) {
	var payload StaffLoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity, err := app.kiosk.AuthenticateClaimed(r.Context(), payload.TenantID, payload.StaffID, payload.Pin)
	if err != nil {
		app.authFailureResponse(w, r, err)
		return
	}

	app.setSessionCookie(w, identity.Token)
	if err := app.jsonResponse(w, http.StatusOK, identity); err != nil {
		app.internalServerError(w, r, err)
	}
}

// authFailureResponse maps service errors to client responses. Every
// credential-mismatch variant, including setup states an attacker should
// not be able to distinguish, collapses to the same generic 401.
func (app *application) authFailureResponse(w http.ResponseWriter, r *http.Request, err error) {
	var rle *kiosk.RateLimitedError
	switch {
	case errors.As(err, &rle):
		app.rateLimitExceededResponse(w, r, rle.RetryAfter)
	case errors.Is(err, credentials.ErrInvalidPIN),
		errors.Is(err, kiosk.ErrInvalidTenantID):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, kiosk.ErrInvalidPin),
		errors.Is(err, kiosk.ErrTenantNotFound),
		errors.Is(err, kiosk.ErrNoPinEnabledStaff):
		app.invalidCredentialsResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// logoutHandler clears the client-held token. This is advisory only: a
// stolen token stays structurally valid until expiry, and real revocation
// happens by changing the staff member's PIN.
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	app.clearSessionCookie(w)
	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "logged out"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sessionHandler returns the authenticated actor's claims. Reaching it at
// all means the middleware's structural and freshness checks both passed.
func (app *application) sessionHandler(w http.ResponseWriter, r *http.Request) {
	actor := getActorFromContext(r)

	data := map[string]any{
		"staff_id":   actor.Claims.StaffID,
		"tenant_id":  actor.Claims.TenantID,
		"role":       actor.Claims.Role,
		"first_name": actor.Claims.FirstName,
		"last_name":  actor.Claims.LastName,
		"issued_at":  actor.Claims.IssuedAt,
		"expires_at": actor.Claims.ExpiresAt,
	}
	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
