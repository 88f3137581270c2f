// Package kiosk authenticates shared, unattended terminals where only a
// tenant context and a submitted PIN are known, plus the companion path for
// a claimed identity ("switch user"). The kiosk path is a deliberate 1-to-N
// candidate search; its cost is bounded by a tenant-scoped rate limit, kept
// strictly separate from the per-staff limit of the claimed path.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"crewgate/internal/credentials"
	"crewgate/internal/metrics"
	"crewgate/internal/ratelimiter"
	"crewgate/internal/session"
	"crewgate/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	KioskMaxAttempts = 5
	KioskWindow      = 5 * time.Minute
	StaffMaxAttempts = 5
	StaffWindow      = 5 * time.Minute
)

var (
	ErrInvalidTenantID   = errors.New("kiosk: malformed tenant id")
	ErrTenantNotFound    = errors.New("kiosk: tenant not found")
	ErrNoPinEnabledStaff = errors.New("kiosk: no pin-enabled staff in tenant")
	ErrInvalidPin        = errors.New("kiosk: invalid pin")
)

// RateLimitedError rejects an attempt before any credential work, carrying
// only a retry hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("kiosk: rate limited, retry after %s", e.RetryAfter)
}

// Identity is the authenticated result handed back to the shell
// application, session token included.
type Identity struct {
	StaffID   int64  `json:"staff_id"`
	TenantID  string `json:"tenant_id"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Token     string `json:"-"`
}

type TenantStore interface {
	Exists(ctx context.Context, tenantID string) (bool, error)
}

type StaffStore interface {
	GetByID(ctx context.Context, staffID int64) (*store.Staff, error)
	GetCredential(ctx context.Context, staffID int64) (*store.Credential, error)
	ListPINEnabled(ctx context.Context, tenantID string) ([]store.Staff, error)
}

type Service struct {
	tenants  TenantStore
	staff    StaffStore
	limiter  ratelimiter.Limiter
	sessions *session.Manager
	logger   *zap.SugaredLogger
}

func NewService(tenants TenantStore, staff StaffStore, limiter ratelimiter.Limiter, sessions *session.Manager, logger *zap.SugaredLogger) *Service {
	return &Service{
		tenants:  tenants,
		staff:    staff,
		limiter:  limiter,
		sessions: sessions,
		logger:   logger,
	}
}

// IdentifyAndAuthenticate finds which staff member of a tenant submitted
// the PIN. Candidates are checked in stable id order and the first match
// wins. Every non-match outcome beyond rate limiting collapses to
// ErrInvalidPin at the API surface so the response never reveals how many
// candidates exist or how close a guess was.
func (s *Service) IdentifyAndAuthenticate(ctx context.Context, tenantID, pin string) (*Identity, error) {
	if !credentials.ValidPIN(pin) {
		return nil, credentials.ErrInvalidPIN
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, ErrInvalidTenantID
	}

	exists, err := s.tenants.Exists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("checking tenant: %w", err)
	}
	if !exists {
		metrics.AuthFailures.WithLabelValues("tenant_not_found").Inc()
		return nil, ErrTenantNotFound
	}

	res, err := s.limiter.Check(ctx, "kiosk:"+tenantID, KioskMaxAttempts, KioskWindow)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !res.Allowed {
		metrics.RateLimited.WithLabelValues("kiosk").Inc()
		return nil, &RateLimitedError{RetryAfter: time.Until(res.ResetAt)}
	}

	candidates, err := s.staff.ListPINEnabled(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	if len(candidates) == 0 {
		metrics.AuthFailures.WithLabelValues("no_pin_enabled_staff").Inc()
		return nil, ErrNoPinEnabledStaff
	}

	for i := range candidates {
		c := &candidates[i]
		ok, verr := credentials.VerifyPIN(pin, c.PINHash)
		if verr != nil {
			// Unreadable stored hash counts as a non-match, never a crash.
			s.logger.Warnw("skipping unreadable pin hash",
				"staff_id", c.ID, "tenant_id", tenantID, "error", verr)
			continue
		}
		if ok {
			return s.issue(c, c.PINChangedAt)
		}
	}

	metrics.AuthFailures.WithLabelValues("kiosk_no_match").Inc()
	return nil, ErrInvalidPin
}

// AuthenticateClaimed verifies a single staff member whose identity is
// already known. Rate limiting is per staff id, in its own keyspace, so a
// kiosk lockout never blocks this path and vice versa. All mismatch reasons
// (unknown staff, wrong tenant, inactive, PIN disabled, wrong PIN) return
// ErrInvalidPin; the true reason only reaches logs and metrics.
func (s *Service) AuthenticateClaimed(ctx context.Context, tenantID string, staffID int64, pin string) (*Identity, error) {
	if !credentials.ValidPIN(pin) {
		return nil, credentials.ErrInvalidPIN
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, ErrInvalidTenantID
	}

	res, err := s.limiter.Check(ctx, "staff:"+strconv.FormatInt(staffID, 10), StaffMaxAttempts, StaffWindow)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !res.Allowed {
		metrics.RateLimited.WithLabelValues("staff").Inc()
		return nil, &RateLimitedError{RetryAfter: time.Until(res.ResetAt)}
	}

	st, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, s.mismatch(tenantID, staffID, "unknown_staff")
		}
		return nil, fmt.Errorf("loading staff: %w", err)
	}
	if st.TenantID != tenantID {
		return nil, s.mismatch(tenantID, staffID, "tenant_mismatch")
	}
	if !st.IsActive {
		return nil, s.mismatch(tenantID, staffID, "inactive_staff")
	}

	cred, err := s.staff.GetCredential(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if cred.PINHash == nil {
		return nil, s.mismatch(tenantID, staffID, "pin_disabled")
	}

	ok, verr := credentials.VerifyPIN(pin, cred.PINHash)
	if verr != nil {
		s.logger.Warnw("unreadable pin hash",
			"staff_id", staffID, "tenant_id", tenantID, "error", verr)
		return nil, s.mismatch(tenantID, staffID, "malformed_hash")
	}
	if !ok {
		return nil, s.mismatch(tenantID, staffID, "wrong_pin")
	}

	return s.issue(st, cred.PINChangedAt)
}

func (s *Service) mismatch(tenantID string, staffID int64, reason string) error {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	s.logger.Infow("staff authentication failed",
		"tenant_id", tenantID, "staff_id", staffID, "reason", reason)
	return ErrInvalidPin
}

func (s *Service) issue(st *store.Staff, pinChangedAt *time.Time) (*Identity, error) {
	token, err := s.sessions.Issue(session.Claims{
		StaffID:      st.ID,
		TenantID:     st.TenantID,
		Role:         st.Role,
		FirstName:    st.FirstName,
		LastName:     st.LastName,
		PinChangedAt: pinChangedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("issuing session: %w", err)
	}
	metrics.SessionsIssued.Inc()
	return &Identity{
		StaffID:   st.ID,
		TenantID:  st.TenantID,
		Role:      st.Role,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		Token:     token,
	}, nil
}
