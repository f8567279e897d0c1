package repository

import (
	"context"
	"time"

	"github.com/nmkdev/intern-management/internal/domain/entity"
)

// UserRepository defines user/session persistence. The magic-link and session
// mutations are specified as single find-and-modify operations so that token
// issuance and consumption cannot race: two concurrent consumers of the same
// token must not both observe it as valid.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	SetDepartment(ctx context.Context, email, department string) error

	// IssueMagicLink finds the single user for the department and stores the
	// token pair on it, overwriting any prior pending token. Returns the
	// updated user or ErrNotFound.
	IssueMagicLink(ctx context.Context, department, token string, expires time.Time) (*entity.User, error)

	// ConsumeMagicLink atomically matches {magicLinkToken: token, expires > now},
	// clears the magic-link pair, and installs the new session token in the
	// same command. Returns ErrNotFound when no live token matches.
	ConsumeMagicLink(ctx context.Context, token string, now time.Time, sessionToken string, sessionExpires time.Time) (*entity.User, error)

	// ClearMagicLink removes any stored copy of the literal token value,
	// regardless of expiry. Used to stop replay of an expired-but-stored token.
	ClearMagicLink(ctx context.Context, token string) error

	// GetBySession returns the user whose session token matches and whose
	// expiry is strictly after now, or ErrNotFound.
	GetBySession(ctx context.Context, token string, now time.Time) (*entity.User, error)

	// ClearSession drops the session token wherever it is stored. A miss is
	// not an error: logout is idempotent.
	ClearSession(ctx context.Context, token string) error
}
