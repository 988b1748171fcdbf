package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/pkg/clock"
)

// Role is the coarse permission level carried by a token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleDonor Role = "donor"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDonor
}

// Claims are the registered claims plus the caller's role.
// Subject holds the user ID.
type Claims struct {
	gojwt.RegisteredClaims
	Role Role `json:"role"`
}

// UserID parses the subject claim.
func (c Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidClaims, err)
	}
	return id, nil
}

// Service signs and verifies tokens with a shared HMAC key.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

// Option configures a Service.
type Option func(*Service)

func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

// WithTTL sets the lifetime of generated tokens.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{
		key:   key,
		ttl:   24 * time.Hour,
		clock: clock.System(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate issues a token for userID with the given role.
func (s *Service) Generate(userID uuid.UUID, role Role) (string, error) {
	if userID == uuid.Nil || !role.Valid() {
		return "", ErrInvalidClaims
	}
	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: role,
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Parse verifies the signature, algorithm, expiry and issuer of token.
func (s *Service) Parse(token string) (*Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.clock.Now),
		gojwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if !claims.Role.Valid() {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
