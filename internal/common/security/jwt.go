package security

import (
	"crypto/hmac"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"subhub/internal/domain/model"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultSessionTTL is the lifetime of a session token when none is configured.
const DefaultSessionTTL = 24 * time.Hour

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
)

// TokenCodec issues and verifies HS256 session tokens. The shared secret is the
// only integrity boundary; no server-side state is kept.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
	auth   *jwtauth.JWTAuth
}

type CodecOption func(*TokenCodec)

// WithClock overrides the wall clock used for iat/exp.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

func NewTokenCodec(secret []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	// exp is compared at second granularity: a token stays valid through the
	// whole second named by exp, hence the one second skew.
	c.auth = jwtauth.New(jwa.HS256.String(), c.secret, nil,
		jwxjwt.WithRequiredClaim(jwxjwt.ExpirationKey),
		jwxjwt.WithAcceptableSkew(time.Second),
		jwxjwt.WithClock(jwxjwt.ClockFunc(func() time.Time { return c.now() })),
	)
	return c, nil
}

// Issue mints a token for p. A lifetime below one second falls back to
// DefaultSessionTTL; sub-second remainders are dropped.
func (c *TokenCodec) Issue(p model.Principal, lifetime time.Duration) (string, error) {
	lifetime = lifetime.Truncate(time.Second)
	if lifetime <= 0 {
		lifetime = DefaultSessionTTL
	}

	claims := jwt.MapClaims{"role": string(p.Role)}
	switch p.Role {
	case model.RoleAdmin:
	case model.RoleUser:
		if p.UserID == "" {
			return "", errors.New("user principal without id")
		}
		claims["uuid"] = p.UserID
	default:
		return "", fmt.Errorf("unknown role %q", p.Role)
	}

	issuedAt := c.now().Truncate(time.Second)
	jwtauth.SetIssuedAt(claims, issuedAt)
	jwtauth.SetExpiry(claims, issuedAt.Add(lifetime))

	_, token, err := c.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Verify checks structure, signature and expiry, in that order, and returns
// the principal the token asserts.
func (c *TokenCodec) Verify(token string) (model.Principal, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return model.Principal{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}
	for _, part := range parts {
		if part == "" {
			return model.Principal{}, fmt.Errorf("%w: empty segment", ErrMalformedToken)
		}
		if _, err := base64.RawURLEncoding.DecodeString(part); err != nil {
			return model.Principal{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	// Compare the encoded form so that a changed character always counts as a
	// different signature, even one that only touches base64 padding bits.
	expected, err := c.signature(parts[0] + "." + parts[1])
	if err != nil {
		return model.Principal{}, err
	}
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return model.Principal{}, ErrSignatureInvalid
	}

	decoded, err := jwtauth.VerifyToken(c.auth, token)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return model.Principal{}, ErrTokenExpired
		}
		return model.Principal{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if decoded.Expiration().Unix() <= 0 {
		return model.Principal{}, fmt.Errorf("%w: exp must be positive", ErrMalformedToken)
	}

	claims := jwt.MapClaims(decoded.PrivateClaims())
	role, _ := claims["role"].(string)
	switch model.Role(role) {
	case model.RoleAdmin:
		return model.AdminPrincipal(), nil
	case model.RoleUser:
		id, _ := claims["uuid"].(string)
		if id == "" {
			return model.Principal{}, fmt.Errorf("%w: user token without uuid", ErrMalformedToken)
		}
		return model.UserPrincipal(id), nil
	default:
		return model.Principal{}, fmt.Errorf("%w: unknown role %v", ErrMalformedToken, claims["role"])
	}
}

func (c *TokenCodec) signature(signingString string) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(signingString, c.secret)
	if err != nil {
		return "", fmt.Errorf("compute token signature: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}
