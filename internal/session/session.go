// Package session resolves the participant identity behind a request.
//
// Identities travel as HS256 JWTs. The subject is the participant id. A token
// without a subject belongs to a spectator; admins carry the admin claim.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = errors.New("no session token")
var ErrInvalidToken = errors.New("invalid session token")

type Identity struct {
	ParticipantID string
	Admin         bool
}

type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Resolver maps a request to an Identity.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

type TokenResolver struct {
	secret []byte
	now    func() time.Time
}

func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret), now: time.Now}
}

// Issue mints a token for id. A zero ttl means the token never expires.
func (t *TokenResolver) Issue(id Identity, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Admin: id.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.ParticipantID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (t *TokenResolver) Parse(raw string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{ParticipantID: claims.Subject, Admin: claims.Admin}, nil
}

// Resolve reads the token from the Authorization bearer header, falling back to
// the token query parameter (browsers cannot set headers on websocket upgrades).
func (t *TokenResolver) Resolve(r *http.Request) (Identity, error) {
	raw := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); h != "" {
		raw = strings.TrimPrefix(h, "Bearer ")
	}
	if raw == "" {
		return Identity{}, ErrNoToken
	}
	return t.Parse(raw)
}
