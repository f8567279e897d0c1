package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmkdev/intern-management/internal/domain/entity"
)

// -------- test fakes --------

// fakeUserRepo is an in-memory user store honoring the same atomicity
// contract as the real one: token transitions happen under one lock.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User // keyed by email
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*entity.User{}}
	for _, u := range users {
		cp := *u
		r.users[cp.Email] = &cp
	}
	return r
}

func (r *fakeUserRepo) get(email string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[email]
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (r *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entity.NormalizeEmail(u.Email)
	if _, ok := r.users[key]; ok {
		return ErrConflict
	}
	cp := *u
	cp.Email = key
	r.users[key] = &cp
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if u := r.get(entity.NormalizeEmail(email)); u != nil {
		return u, nil
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) SetDepartment(ctx context.Context, email, department string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[entity.NormalizeEmail(email)]
	if !ok {
		return ErrNotFound
	}
	u.Department = department
	return nil
}

func (r *fakeUserRepo) IssueMagicLink(ctx context.Context, department, token string, expires time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Department == department {
			u.MagicLinkToken = token
			exp := expires
			u.MagicLinkTokenExpires = &exp
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) ConsumeMagicLink(ctx context.Context, token string, now time.Time, sessionToken string, sessionExpires time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.MagicLinkToken == token && u.MagicLinkTokenExpires != nil && u.MagicLinkTokenExpires.After(now) {
			u.MagicLinkToken = ""
			u.MagicLinkTokenExpires = nil
			u.SessionToken = sessionToken
			exp := sessionExpires
			u.SessionExpires = &exp
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) ClearMagicLink(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.MagicLinkToken == token {
			u.MagicLinkToken = ""
			u.MagicLinkTokenExpires = nil
		}
	}
	return nil
}

func (r *fakeUserRepo) GetBySession(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.SessionToken == token && u.SessionExpires != nil && u.SessionExpires.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) ClearSession(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.SessionToken == token {
			u.SessionToken = ""
			u.SessionExpires = nil
		}
	}
	return nil
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// -------- helpers --------

func staffUser() *entity.User {
	return &entity.User{ID: "u1", Email: "ictstaff@nmk.org", Role: entity.RoleStaff, Department: "ICT"}
}

func hrUser() *entity.User {
	return &entity.User{ID: "u2", Email: "hr@org", Role: entity.RoleHR}
}

func newAuthService(repo *fakeUserRepo, notifier *fakeNotifier) *AuthService {
	return NewAuthService(repo, notifier, nil, 15*time.Minute, 24*time.Hour, "http://localhost:5000/")
}

// -------- tests --------

func TestRequestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown department fails with not found", func(t *testing.T) {
		svc := newAuthService(newFakeUserRepo(staffUser()), &fakeNotifier{})
		_, err := svc.RequestLogin(ctx, "Human Resources")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty department fails validation", func(t *testing.T) {
		svc := newAuthService(newFakeUserRepo(staffUser()), &fakeNotifier{})
		_, err := svc.RequestLogin(ctx, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "department")
	})

	t.Run("issues token and notifies recipient", func(t *testing.T) {
		repo := newFakeUserRepo(staffUser())
		notifier := &fakeNotifier{}
		svc := newAuthService(repo, notifier)

		email, err := svc.RequestLogin(ctx, "ICT")
		require.NoError(t, err)
		assert.Equal(t, "ictstaff@nmk.org", email)

		u := repo.get("ictstaff@nmk.org")
		require.NotEmpty(t, u.MagicLinkToken)
		require.NotNil(t, u.MagicLinkTokenExpires)
		assert.True(t, u.MagicLinkTokenExpires.After(time.Now()))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "ictstaff@nmk.org", notifier.sent[0].To)
		// The link carries the token; the API response never does.
		assert.Contains(t, notifier.sent[0].Body, u.MagicLinkToken)
		assert.NotContains(t, email, u.MagicLinkToken)
	})

	t.Run("reissue overwrites the prior pending token", func(t *testing.T) {
		repo := newFakeUserRepo(staffUser())
		svc := newAuthService(repo, &fakeNotifier{})

		_, err := svc.RequestLogin(ctx, "ICT")
		require.NoError(t, err)
		first := repo.get("ictstaff@nmk.org").MagicLinkToken

		_, err = svc.RequestLogin(ctx, "ICT")
		require.NoError(t, err)
		second := repo.get("ictstaff@nmk.org").MagicLinkToken

		assert.NotEqual(t, first, second)
		// The first token no longer matches anything.
		_, _, err = svc.ConsumeLoginToken(ctx, first)
		assert.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("delivery failure surfaces but token stays issued", func(t *testing.T) {
		repo := newFakeUserRepo(staffUser())
		notifier := &fakeNotifier{err: errors.New("smtp down")}
		svc := newAuthService(repo, notifier)

		email, err := svc.RequestLogin(ctx, "ICT")
		require.ErrorIs(t, err, ErrDelivery)
		assert.Equal(t, "ictstaff@nmk.org", email)

		u := repo.get("ictstaff@nmk.org")
		assert.NotEmpty(t, u.MagicLinkToken, "token must survive a failed delivery")
	})
}

func TestConsumeLoginToken(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, svc *AuthService, repo *fakeUserRepo, department string) string {
		t.Helper()
		_, err := svc.RequestLogin(ctx, department)
		require.NoError(t, err)
		for _, u := range repo.users {
			if u.Department == department {
				return u.MagicLinkToken
			}
		}
		t.Fatalf("no token issued for %s", department)
		return ""
	}

	t.Run("success returns identity and session", func(t *testing.T) {
		repo := newFakeUserRepo(staffUser())
		svc := newAuthService(repo, &fakeNotifier{})
		token := issue(t, svc, repo, "ICT")

		id, session, err := svc.ConsumeLoginToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "ictstaff@nmk.org", id.Email)
		assert.Equal(t, entity.RoleStaff, id.Role)
		assert.Equal(t, "ICT", id.Department)
		assert.NotEmpty(t, session.Token)
		assert.True(t, session.ExpiresAt.After(time.Now()))

		u := repo.get("ictstaff@nmk.org")
		assert.Empty(t, u.MagicLinkToken, "magic link must be cleared on use")
		assert.Equal(t, session.Token, u.SessionToken)
	})

	t.Run("token is single use", func(t *testing.T) {
		repo := newFakeUserRepo(staffUser())
		svc := newAuthService(repo, &fakeNotifier{})
		token := issue(t, svc, repo, "ICT")

		_, _, err := svc.ConsumeLoginToken(ctx, token)
		require.NoError(t, err)

		_, _, err = svc.ConsumeLoginToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("expired token is rejected and cleared", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		u := staffUser()
		u.MagicLinkToken = "stale-token"
		u.MagicLinkTokenExpires = &past
		repo := newFakeUserRepo(u)
		svc := newAuthService(repo, &fakeNotifier{})

		_, _, err := svc.ConsumeLoginToken(ctx, "stale-token")
		require.ErrorIs(t, err, ErrInvalidOrExpired)

		stored := repo.get("ictstaff@nmk.org")
		assert.Empty(t, stored.MagicLinkToken, "stale stored token must be cleared to prevent replay")
	})

	t.Run("empty and unknown tokens are rejected", func(t *testing.T) {
		svc := newAuthService(newFakeUserRepo(staffUser()), &fakeNotifier{})
		_, _, err := svc.ConsumeLoginToken(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidOrExpired)
		_, _, err = svc.ConsumeLoginToken(ctx, "nope")
		assert.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("fresh login supersedes the prior session", func(t *testing.T) {
		repo := newFakeUserRepo(staffUser())
		svc := newAuthService(repo, &fakeNotifier{})

		token := issue(t, svc, repo, "ICT")
		_, first, err := svc.ConsumeLoginToken(ctx, token)
		require.NoError(t, err)

		token = issue(t, svc, repo, "ICT")
		_, second, err := svc.ConsumeLoginToken(ctx, token)
		require.NoError(t, err)
		require.NotEqual(t, first.Token, second.Token)

		_, err = svc.ResolveSession(ctx, second.Token)
		assert.NoError(t, err)
		_, err = svc.ResolveSession(ctx, first.Token)
		assert.ErrorIs(t, err, ErrInvalidSession, "sessions are not stacked")
	})
}

func TestResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("absent credential", func(t *testing.T) {
		svc := newAuthService(newFakeUserRepo(), &fakeNotifier{})
		_, err := svc.ResolveSession(ctx, "")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("unknown credential", func(t *testing.T) {
		svc := newAuthService(newFakeUserRepo(hrUser()), &fakeNotifier{})
		_, err := svc.ResolveSession(ctx, "bogus")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("expired session rejected even when still stored", func(t *testing.T) {
		past := time.Now().Add(-time.Second)
		u := hrUser()
		u.SessionToken = "expired-session"
		u.SessionExpires = &past
		svc := newAuthService(newFakeUserRepo(u), &fakeNotifier{})

		_, err := svc.ResolveSession(ctx, "expired-session")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("live session returns identity", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		u := hrUser()
		u.SessionToken = "live-session"
		u.SessionExpires = &future
		svc := newAuthService(newFakeUserRepo(u), &fakeNotifier{})

		id, err := svc.ResolveSession(ctx, "live-session")
		require.NoError(t, err)
		assert.Equal(t, "hr@org", id.Email)
		assert.Equal(t, entity.RoleHR, id.Role)
		assert.Empty(t, id.Department)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	u := staffUser()
	u.SessionToken = "session-1"
	u.SessionExpires = &future
	repo := newFakeUserRepo(u)
	svc := newAuthService(repo, &fakeNotifier{})

	require.NoError(t, svc.Logout(ctx, "session-1"))
	assert.Empty(t, repo.get("ictstaff@nmk.org").SessionToken, "logout invalidates server-side")

	// Idempotent: the credential is already invalid, both calls still succeed.
	assert.NoError(t, svc.Logout(ctx, "session-1"))
	assert.NoError(t, svc.Logout(ctx, ""))

	_, err := svc.ResolveSession(ctx, "session-1")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
