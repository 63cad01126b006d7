// Package service implements session issuance, validation, rotation, and
// revocation on top of the token provider and the revocation ledger.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ordayna/backend/internal/revocation"
	"ordayna/backend/internal/security"
	"ordayna/backend/internal/user/domain"
)

var (
	// ErrMalformedToken is returned when a presented token is not decodable.
	ErrMalformedToken = errors.New("malformed token")
	// ErrUserNotFound is returned when a login names an email no account
	// has. Distinct from ErrUnauthorised: the two map to different
	// responses.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrUnauthorised is returned for a wrong password and for tokens that
	// decode but fail verification. Callers get no finer detail.
	ErrUnauthorised = errors.New("unauthorised")
)

// UserStore is the slice of user persistence the auth service needs.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// IssuedToken is a freshly signed session token ready to be set as a cookie.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	// MaxAge is the token lifetime, the cookie's Max-Age.
	MaxAge time.Duration
}

// AuthService orchestrates the session lifecycle.
type AuthService struct {
	tokens *security.TokenProvider
	hasher *security.Hasher
	ledger revocation.Ledger
	users  UserStore
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthService wires the auth service. All dependencies are required.
func NewAuthService(tokens *security.TokenProvider, hasher *security.Hasher, ledger revocation.Ledger, users UserStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		tokens: tokens,
		hasher: hasher,
		ledger: ledger,
		users:  users,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the service's time source for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login verifies the credentials and starts a new session by issuing a
// refresh token. An unknown email comes back as ErrUserNotFound, a wrong
// password as ErrUnauthorised. A stored hash below the configured cost is
// re-hashed while the plaintext is at hand; failure to persist the new hash
// does not fail the login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*IssuedToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrUnauthorised
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if newHash, err := s.hasher.Hash([]byte(password)); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("password rehash failed")
		} else if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("password rehash not persisted")
		}
	}

	return s.issue(security.RefreshTokenKind, user.ID)
}

// RotateRefresh exchanges a valid refresh token for a new one and revokes
// the old token for the rest of its lifetime.
func (s *AuthService) RotateRefresh(ctx context.Context, refreshToken string) (*IssuedToken, error) {
	claims, err := s.validate(ctx, security.RefreshTokenKind, refreshToken)
	if err != nil {
		return nil, err
	}

	issued, err := s.issue(security.RefreshTokenKind, claims.UserID)
	if err != nil {
		return nil, err
	}

	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.ledger.Revoke(ctx, claims.UserID, claims.ID, remaining); err != nil {
		return nil, err
	}
	return issued, nil
}

// IssueAccess mints a short-lived access token from a valid refresh token.
// The refresh token stays live.
func (s *AuthService) IssueAccess(ctx context.Context, refreshToken string) (*IssuedToken, error) {
	claims, err := s.validate(ctx, security.RefreshTokenKind, refreshToken)
	if err != nil {
		return nil, err
	}
	return s.issue(security.AccessTokenKind, claims.UserID)
}

// Authenticate validates an access token and returns the user it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	claims, err := s.validate(ctx, security.AccessTokenKind, accessToken)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// VerifyPassword checks the user's current password. Used by operations that
// re-prompt for the password on top of a valid session.
func (s *AuthService) VerifyPassword(ctx context.Context, userID int64, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorised
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return ErrUnauthorised
	}
	return nil
}

// ChangePassword verifies the current password, stores a hash of the new
// one, and ends every session so stolen tokens die with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	if err := s.VerifyPassword(ctx, userID, current); err != nil {
		return err
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.EndAllSessions(ctx, userID)
}

// EndAllSessions invalidates every outstanding token of the user, including
// the one that authorised the call. New logins are unaffected.
func (s *AuthService) EndAllSessions(ctx context.Context, userID int64) error {
	return s.ledger.RevokeAll(ctx, userID, s.now(), s.tokens.RefreshTTL())
}

func (s *AuthService) issue(kind security.TokenKind, userID int64) (*IssuedToken, error) {
	token, _, expiresAt, err := s.tokens.Issue(kind, userID)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{
		Token:     token,
		ExpiresAt: expiresAt,
		MaxAge:    s.tokens.TTL(kind),
	}, nil
}

// validate runs the full pipeline: decode and verify the token, check the
// revocation ledger, then confirm the user still exists.
func (s *AuthService) validate(ctx context.Context, kind security.TokenKind, tokenString string) (*security.SessionClaims, error) {
	claims, err := s.tokens.Validate(kind, tokenString)
	if err != nil {
		if errors.Is(err, security.ErrMalformedToken) {
			return nil, ErrMalformedToken
		}
		return nil, ErrUnauthorised
	}

	revoked, err := s.ledger.IsRevoked(ctx, claims.UserID, claims.ID, claims.IssuedAt.Time)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorised
	}

	exists, err := s.users.Exists(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnauthorised
	}
	return claims, nil
}
