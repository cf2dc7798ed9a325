package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/suPer8Hu/gopherchat/internal/common"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionRevoked     = errors.New("session has been signed out")
)

// SessionRegistry remembers live session ids so signed-out tokens can be
// rejected before they expire.
type SessionRegistry interface {
	SaveSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

const minPasswordLen = 6

// Provider is the identity provider: local accounts, JWT sessions and an
// optional session registry. With a nil registry tokens are stateless.
type Provider struct {
	db       *gorm.DB
	secret   []byte
	ttl      time.Duration
	sessions SessionRegistry
	// revoked tracks signed-out sessions when sessions is nil.
	revoked *revokedSessions
	now     func() time.Time
}

func NewProvider(db *gorm.DB, secret string, ttl time.Duration, sessions SessionRegistry) *Provider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	p := &Provider{
		db:       db,
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
	}
	p.now = func() time.Time { return time.Now().UTC() }
	if sessions == nil {
		p.revoked = newRevokedSessions(func() time.Time { return p.now() })
	}
	return p
}

func validAvatarURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && len(raw) <= 512
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account. displayName and avatarURL are optional.
func (p *Provider) Register(ctx context.Context, email, password, displayName, avatarURL string) (*User, error) {
	const op = "register"
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, common.ValidationError(op, "a valid email is required")
	}
	if len(password) < minPasswordLen {
		return nil, common.ValidationError(op, "password must be at least 6 characters")
	}
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL != "" && !validAvatarURL(avatarURL) {
		return nil, common.ValidationError(op, "avatar url must be an absolute http(s) url")
	}

	var cnt int64
	if err := p.db.WithContext(ctx).Model(&UserRecord{}).Where("email = ?", email).Count(&cnt).Error; err != nil {
		return nil, common.AuthError(op, err)
	}
	if cnt > 0 {
		return nil, common.AuthError(op, ErrEmailTaken)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, common.AuthError(op, errors.Wrap(err, "hash password"))
	}
	id, err := common.NewULID()
	if err != nil {
		return nil, common.AuthError(op, err)
	}

	rec := UserRecord{
		ID:           id,
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		AvatarURL:    avatarURL,
		PasswordHash: hash,
	}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		// lost a race with a concurrent registration
		return nil, common.AuthError(op, errors.Wrap(err, "create user"))
	}
	u := rec.User()
	return &u, nil
}

// Authenticate exchanges credentials for a signed session.
func (p *Provider) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	const op = "authenticate"
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, common.ValidationError(op, "email and password are required")
	}

	var rec UserRecord
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.AuthError(op, ErrInvalidCredentials)
		}
		return nil, common.AuthError(op, err)
	}
	if !CheckPassword(rec.PasswordHash, creds.Password) {
		return nil, common.AuthError(op, ErrInvalidCredentials)
	}

	sessionID := uuid.NewString()
	issued := p.now()
	token, err := SignJWT(rec.ID, sessionID, p.secret, issued, p.ttl)
	if err != nil {
		return nil, common.AuthError(op, errors.Wrap(err, "sign token"))
	}
	if p.sessions != nil {
		if err := p.sessions.SaveSession(ctx, sessionID, rec.ID, p.ttl); err != nil {
			return nil, common.AuthError(op, errors.Wrap(err, "save session"))
		}
	}

	return &Session{
		ID:        sessionID,
		Token:     token,
		User:      rec.User(),
		ExpiresAt: issued.Add(p.ttl),
	}, nil
}

// Verify resolves a bearer token back into its session.
func (p *Provider) Verify(ctx context.Context, token string) (*Session, error) {
	const op = "verify"
	claims, err := ParseJWT(token, p.secret, p.now)
	if err != nil {
		return nil, common.AuthError(op, err)
	}

	if p.sessions != nil {
		ok, err := p.sessions.SessionExists(ctx, claims.ID)
		if err != nil {
			return nil, common.AuthError(op, errors.Wrap(err, "lookup session"))
		}
		if !ok {
			return nil, common.AuthError(op, ErrSessionRevoked)
		}
	} else if p.revoked.revoked(claims.ID) {
		return nil, common.AuthError(op, ErrSessionRevoked)
	}

	var rec UserRecord
	if err := p.db.WithContext(ctx).First(&rec, "id = ?", claims.Subject).Error; err != nil {
		return nil, common.AuthError(op, err)
	}

	s := &Session{ID: claims.ID, Token: token, User: rec.User()}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// SignOut always succeeds from the caller's point of view; a failing
// registry delete is only logged. Without a registry the session is
// remembered as revoked in memory until its token expires.
func (p *Provider) SignOut(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := parseIgnoringExpiry(token, p.secret)
	if err != nil {
		log.Warn().Err(err).Msg("sign out with unparsable token")
		return
	}
	if p.sessions == nil {
		exp := p.now().Add(p.ttl)
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		p.revoked.revoke(claims.ID, exp)
		return
	}
	if err := p.sessions.DeleteSession(ctx, claims.ID); err != nil {
		log.Error().Err(err).Str("user_id", claims.Subject).Msg("failed to revoke session")
	}
}
