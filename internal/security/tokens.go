package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformedToken is returned when a token cannot be decoded at all.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidToken is returned when a structurally sound token fails verification
	// (bad signature, wrong issuer/audience/kind, outside its validity window).
	ErrInvalidToken = errors.New("invalid token")
)

// TokenKind selects between the two session token tiers. The kind is carried
// in the sub claim, so a refresh token can never pass access validation.
type TokenKind string

const (
	// RefreshTokenKind marks the long-lived token that mints the other two.
	RefreshTokenKind TokenKind = "refresh"
	// AccessTokenKind marks the short-lived token presented on every request.
	AccessTokenKind TokenKind = "access"
)

// SessionClaims holds the JWT claims of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	// UserID is the account the token was issued to.
	UserID int64 `json:"uid"`
}

// TokenProvider issues and validates session JWTs signed with HS256 and a shared secret.
type TokenProvider struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with the given shared secret.
// issuer and audience are set on claims and required on validation.
func NewTokenProvider(secret, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the provider's time source. Tests use this to walk
// tokens across their validity window without sleeping.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	p.now = now
	return p
}

// AccessTTL returns the access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// TTL returns the lifetime for the given token kind.
func (p *TokenProvider) TTL(kind TokenKind) time.Duration {
	if kind == RefreshTokenKind {
		return p.refreshTTL
	}
	return p.accessTTL
}

// Issue signs a new token of the given kind for userID. The token is valid
// from now until now plus the kind's lifetime. Returns the compact token,
// its jti, and the expiry.
func (p *TokenProvider) Issue(kind TokenKind, userID int64) (token string, jti string, expiresAt time.Time, err error) {
	jti = uuid.New().String()
	now := p.now().UTC()
	expiresAt = now.Add(p.TTL(kind))
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   string(kind),
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiresAt, nil
}

// Validate parses tokenString and checks it is a live token of the given kind:
// signature, issuer, audience, kind, validity window, and a non-zero uid, in
// that order. Returns ErrMalformedToken when the string does not decode as a
// JWT at all, ErrInvalidToken for every later failure.
func (p *TokenProvider) Validate(kind TokenKind, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrMalformedToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	if claims.Subject != string(kind) {
		return nil, ErrInvalidToken
	}
	now := p.now().UTC()
	if claims.NotBefore == nil || now.Before(claims.NotBefore.Time) {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
