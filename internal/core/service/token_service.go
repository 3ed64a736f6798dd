package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/ports"
)

// VerifiedIdentity is proof of a successfully verified session assertion.
// The fields are unexported and there is no constructor outside this
// package, so holding a non-zero VerifiedIdentity means TokenService.Verify
// checked the signature, the expiry, and the revocation list. Downstream
// code must not trust a role that arrives any other way.
type VerifiedIdentity struct {
	id   string
	role string
}

func (v VerifiedIdentity) ID() string   { return v.id }
func (v VerifiedIdentity) Role() string { return v.role }

// Valid reports whether v was produced by verification (the zero value is
// not a usable identity).
func (v VerifiedIdentity) Valid() bool { return v.id != "" }

// TokenService issues and verifies signed session assertions.
type TokenService struct {
	secret      []byte
	ttl         time.Duration
	revocations ports.RevocationStore
	log         zerolog.Logger
}

func NewTokenService(secret string, ttl time.Duration, revocations ports.RevocationStore, log zerolog.Logger) *TokenService {
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	return &TokenService{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		log:         log,
	}
}

// Issue signs a fresh assertion for the identity. The role is baked into
// the claims; changing it requires a new login, never in-place mutation.
func (s *TokenService) Issue(identityID, role string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  identityID,
		"role": role,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry, and the revocation denylist. Any failure
// yields ErrInvalidCredentials; a revocation-store outage fails closed.
func (s *TokenService) Verify(ctx context.Context, token string) (VerifiedIdentity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return VerifiedIdentity{}, domain.ErrInvalidCredentials
	}

	jti, _ := claims["jti"].(string)
	if jti != "" {
		revoked, err := s.revocations.IsRevoked(ctx, jti)
		if err != nil {
			s.log.Warn().Err(err).Msg("revocation check failed, treating assertion as invalid")
			return VerifiedIdentity{}, domain.ErrInvalidCredentials
		}
		if revoked {
			return VerifiedIdentity{}, domain.ErrInvalidCredentials
		}
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || !domain.ValidRole(role) {
		return VerifiedIdentity{}, domain.ErrInvalidCredentials
	}

	return VerifiedIdentity{id: sub, role: role}, nil
}

// Revoke denylists the assertion's jti until the assertion would have
// expired on its own. Revoking an unparseable or already-revoked token is
// a no-op, so logout stays idempotent.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}

	ttl := s.ttl
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if remaining := time.Until(exp.Time); remaining > 0 {
			ttl = remaining
		}
	}

	if err := s.revocations.Revoke(ctx, jti, ttl); err != nil {
		return fmt.Errorf("revoke assertion: %w", err)
	}
	return nil
}

func (s *TokenService) parse(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
