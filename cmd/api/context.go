package main

import (
	"net/http"

	"crewgate/internal/authz"
	"crewgate/internal/session"
)

type contextKey string

const sessionCtx contextKey = "session"

// actorContext is what the session middleware attaches after the full
// two-step validation: the claims are structurally valid, the staff member
// is still active, and the pin_changed_at fence still matches.
type actorContext struct {
	Claims *session.Claims
	Role   authz.Role
}

func getActorFromContext(r *http.Request) *actorContext {
	actor, _ := r.Context().Value(sessionCtx).(*actorContext)
	return actor
}
