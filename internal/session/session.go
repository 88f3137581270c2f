// Package session issues and validates the stateless signed tokens that
// carry a staff member's identity between requests. Tokens are integrity
// protected, not encrypted: nothing secret may be embedded in the claims.
//
// Validation is a two-step contract. Validate checks structure, signature
// and expiry only; the caller must then compare the embedded pin_changed_at
// snapshot against the credential's current value (Claims.FreshAgainst) so a
// PIN change immediately fences out every previously issued token without
// any server-side session table.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed session lifetime.
const TTL = 8 * time.Hour

var ErrInvalidToken = errors.New("session: invalid token")

// Claims is the decoded payload of a session token.
type Claims struct {
	StaffID      int64
	TenantID     string
	Role         string
	FirstName    string
	LastName     string
	PinChangedAt *time.Time
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// FreshAgainst reports whether the token's pin_changed_at snapshot still
// matches the credential's current value. Both absent counts as fresh; any
// other disagreement means the PIN changed after issuance and the session
// is stale.
func (c *Claims) FreshAgainst(current *time.Time) bool {
	if c.PinChangedAt == nil && current == nil {
		return true
	}
	if c.PinChangedAt == nil || current == nil {
		return false
	}
	return c.PinChangedAt.Unix() == current.Unix()
}

type Manager struct {
	secret string
	iss    string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret, iss string) *Manager {
	return &Manager{
		secret: secret,
		iss:    iss,
		ttl:    TTL,
		now:    time.Now,
	}
}

// Issue signs a new token for the given identity. ExpiresAt is always
// IssuedAt + TTL; callers cannot pick their own lifetime.
func (m *Manager) Issue(c Claims) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(c.StaffID, 10),
		"tid":  c.TenantID,
		"role": c.Role,
		"gn":   c.FirstName,
		"fn":   c.LastName,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
		"iss":  m.iss,
	}
	if c.PinChangedAt != nil {
		claims["pch"] = c.PinChangedAt.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, structure and expiry. It deliberately does not
// consult storage; freshness against the current credential is the caller's
// second step.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.iss),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	staffID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	tid, _ := mc["tid"].(string)
	role, _ := mc["role"].(string)
	if tid == "" || role == "" {
		return nil, ErrInvalidToken
	}

	c := &Claims{
		StaffID:  staffID,
		TenantID: tid,
		Role:     role,
	}
	if v, ok := mc["gn"].(string); ok {
		c.FirstName = v
	}
	if v, ok := mc["fn"].(string); ok {
		c.LastName = v
	}
	if v, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(v), 0)
	}
	if v, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(v), 0)
	}
	if v, ok := mc["pch"].(float64); ok {
		t := time.Unix(int64(v), 0)
		c.PinChangedAt = &t
	}
	return c, nil
}
