package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nmkdev/intern-management/internal/domain/entity"
	repo "github.com/nmkdev/intern-management/internal/domain/repository"
	"github.com/nmkdev/intern-management/pkg/helpers"
)

// Session is the opaque credential handed back to the client after a
// successful magic-link exchange. It is transported as an http-only,
// SameSite=Strict cookie.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService owns the magic-link and session lifecycle. Tokens are opaque
// random values persisted on the user document; all validity checks go
// through the store, so revocation is immediate and sessions are never
// stacked (a fresh login overwrites the prior session).
type AuthService struct {
	Users        repo.UserRepository
	Notifier     Notifier
	Logger       *logrus.Logger
	MagicLinkTTL time.Duration
	SessionTTL   time.Duration
	LoginBaseURL string
}

func NewAuthService(users repo.UserRepository, notifier Notifier, logger *logrus.Logger, magicLinkTTL, sessionTTL time.Duration, loginBaseURL string) *AuthService {
	if magicLinkTTL <= 0 {
		magicLinkTTL = 15 * time.Minute
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		Users:        users,
		Notifier:     notifier,
		Logger:       logger,
		MagicLinkTTL: magicLinkTTL,
		SessionTTL:   sessionTTL,
		LoginBaseURL: loginBaseURL,
	}
}

// RequestLogin mints a single-use magic-link token for the department's user,
// persists it (overwriting any prior pending token), and hands the link to
// the notifier. Returns the recipient email for UI display, never the token.
// A delivery failure is reported as ErrDelivery but the token stays issued.
func (s *AuthService) RequestLogin(ctx context.Context, department string) (string, error) {
	if department == "" {
		return "", NewValidationError(map[string]string{"department": "is required"})
	}

	token, err := helpers.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate magic link token: %w", err)
	}
	expires := time.Now().Add(s.MagicLinkTTL)

	u, err := s.Users.IssueMagicLink(ctx, department, token, expires)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"department": department, "email": u.Email}).Info("magic link issued")
	}

	subject := "Your Intern Management Login Link"
	body := s.magicLinkBody(u.Department, token)
	if err := s.Notifier.Send(ctx, u.Email, subject, body); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", u.Email).Warn("magic link delivery failed")
		}
		return u.Email, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return u.Email, nil
}

func (s *AuthService) magicLinkBody(department, token string) string {
	link := s.LoginBaseURL + "?token=" + token
	return fmt.Sprintf(
		"Hello %s Staff,\n\n"+
			"You recently requested a login link for the Intern Management System.\n\n"+
			"Log in here: %s\n\n"+
			"This link is valid for %d minutes and can be used once.\n"+
			"If you did not request this, please ignore this email.\n",
		department, link, int(s.MagicLinkTTL.Minutes()))
}

// ConsumeLoginToken exchanges a live magic-link token for a fresh session.
// The exchange is a single find-and-modify: the token is cleared and the
// session installed in one step, so the token can never be consumed twice.
// On a miss, any stored copy of the literal token value is cleared so an
// expired-but-stored token cannot be replayed later.
func (s *AuthService) ConsumeLoginToken(ctx context.Context, token string) (entity.Identity, Session, error) {
	if token == "" {
		return entity.Identity{}, Session{}, ErrInvalidOrExpired
	}

	sessionToken, err := helpers.GenerateToken()
	if err != nil {
		return entity.Identity{}, Session{}, fmt.Errorf("generate session token: %w", err)
	}
	now := time.Now()
	sessionExpires := now.Add(s.SessionTTL)

	u, err := s.Users.ConsumeMagicLink(ctx, token, now, sessionToken, sessionExpires)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if clearErr := s.Users.ClearMagicLink(ctx, token); clearErr != nil && s.Logger != nil {
				s.Logger.WithError(clearErr).Warn("failed to clear stale magic link token")
			}
			return entity.Identity{}, Session{}, ErrInvalidOrExpired
		}
		return entity.Identity{}, Session{}, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"email": u.Email, "role": u.Role}).Info("login successful")
	}
	id := entity.Identity{Email: u.Email, Role: u.Role, Department: u.Department}
	return id, Session{Token: sessionToken, ExpiresAt: sessionExpires}, nil
}

// ResolveSession returns the identity behind a session credential.
// ErrNoSession when the credential is absent; ErrInvalidSession when it
// matches no session or the session is past its expiry, even if the expired
// token has not been physically cleared yet.
func (s *AuthService) ResolveSession(ctx context.Context, credential string) (entity.Identity, error) {
	if credential == "" {
		return entity.Identity{}, ErrNoSession
	}
	u, err := s.Users.GetBySession(ctx, credential, time.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return entity.Identity{}, ErrInvalidSession
		}
		return entity.Identity{}, err
	}
	return entity.Identity{Email: u.Email, Role: u.Role, Department: u.Department}, nil
}

// Logout invalidates the session server-side. Idempotent: an absent or
// already-invalid credential still succeeds.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}
	if err := s.Users.ClearSession(ctx, credential); err != nil {
		return err
	}
	return nil
}
