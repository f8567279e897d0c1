package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	"github.com/nmkdev/intern-management/pkg/helpers"
)

// memUserRepo is a one-map user store for exercising the HTTP surface with a
// real AuthService behind it.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo(users ...*entity.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*entity.User{}}
	for _, u := range users {
		cp := *u
		r.users[cp.Email] = &cp
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entity.NormalizeEmail(u.Email)
	if _, ok := r.users[key]; ok {
		return application.ErrConflict
	}
	cp := *u
	cp.Email = key
	r.users[key] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[entity.NormalizeEmail(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, application.ErrNotFound
}

func (r *memUserRepo) SetDepartment(ctx context.Context, email, department string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[entity.NormalizeEmail(email)]
	if !ok {
		return application.ErrNotFound
	}
	u.Department = department
	return nil
}

func (r *memUserRepo) IssueMagicLink(ctx context.Context, department, token string, expires time.Time) (*entity.User, error) {
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
	return nil, application.ErrNotFound
}

func (r *memUserRepo) ConsumeMagicLink(ctx context.Context, token string, now time.Time, sessionToken string, sessionExpires time.Time) (*entity.User, error) {
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
	return nil, application.ErrNotFound
}

func (r *memUserRepo) ClearMagicLink(ctx context.Context, token string) error {
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

func (r *memUserRepo) GetBySession(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.SessionToken == token && u.SessionExpires != nil && u.SessionExpires.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, application.ErrNotFound
}

func (r *memUserRepo) ClearSession(ctx context.Context, token string) error {
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

type memNotifier struct {
	mu   sync.Mutex
	body string
}

func (n *memNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.body = body
	return nil
}

func newAuthRouter(repo *memUserRepo, notifier *memNotifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := application.NewAuthService(repo, notifier, nil, 15*time.Minute, 24*time.Hour, "http://localhost:5000/")
	cookies := helpers.NewCookie("authToken", "localhost", false)
	h := NewAuthHandler(svc, nil, cookies)

	r := gin.New()
	api := r.Group("/api/auth")
	api.POST("/request-magic-link", h.RequestMagicLink)
	api.POST("/verify-magic-link", h.VerifyMagicLink)
	api.GET("/check-session", h.CheckSession)
	api.POST("/logout", h.Logout)
	return r
}

func doJSON(r *gin.Engine, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "authToken" {
			return c
		}
	}
	t.Fatal("no authToken cookie set")
	return nil
}

func TestAuthEndpoints(t *testing.T) {
	seed := func() (*gin.Engine, *memUserRepo, *memNotifier) {
		repo := newMemUserRepo(&entity.User{ID: "u1", Email: "ictstaff@nmk.org", Role: entity.RoleStaff, Department: "ICT"})
		notifier := &memNotifier{}
		return newAuthRouter(repo, notifier), repo, notifier
	}

	t.Run("request magic link for unknown department", func(t *testing.T) {
		r, _, _ := seed()
		w := doJSON(r, http.MethodPost, "/api/auth/request-magic-link", `{"department":"Legal"}`, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("request magic link never leaks the token", func(t *testing.T) {
		r, repo, _ := seed()
		w := doJSON(r, http.MethodPost, "/api/auth/request-magic-link", `{"department":"ICT"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var env struct {
			Success bool              `json:"success"`
			Data    map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Success)
		assert.Equal(t, "ictstaff@nmk.org", env.Data["email"])

		token := repo.users["ictstaff@nmk.org"].MagicLinkToken
		require.NotEmpty(t, token)
		assert.NotContains(t, w.Body.String(), token)
	})

	t.Run("verify sets the session cookie", func(t *testing.T) {
		r, repo, _ := seed()
		doJSON(r, http.MethodPost, "/api/auth/request-magic-link", `{"department":"ICT"}`, nil)
		token := repo.users["ictstaff@nmk.org"].MagicLinkToken

		w := doJSON(r, http.MethodPost, "/api/auth/verify-magic-link", `{"token":"`+token+`"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)

		ck := sessionCookie(t, w)
		assert.NotEmpty(t, ck.Value)
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)

		// The same token again must be rejected.
		w = doJSON(r, http.MethodPost, "/api/auth/verify-magic-link", `{"token":"`+token+`"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("check session round trip", func(t *testing.T) {
		r, repo, _ := seed()
		doJSON(r, http.MethodPost, "/api/auth/request-magic-link", `{"department":"ICT"}`, nil)
		token := repo.users["ictstaff@nmk.org"].MagicLinkToken
		w := doJSON(r, http.MethodPost, "/api/auth/verify-magic-link", `{"token":"`+token+`"}`, nil)
		ck := sessionCookie(t, w)

		w = doJSON(r, http.MethodGet, "/api/auth/check-session", "", &http.Cookie{Name: ck.Name, Value: ck.Value})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"ictstaff@nmk.org"`)
	})

	t.Run("check session without cookie", func(t *testing.T) {
		r, _, _ := seed()
		w := doJSON(r, http.MethodGet, "/api/auth/check-session", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid session is rejected and the cookie cleared", func(t *testing.T) {
		r, _, _ := seed()
		w := doJSON(r, http.MethodGet, "/api/auth/check-session", "", &http.Cookie{Name: "authToken", Value: "stale"})
		require.Equal(t, http.StatusUnauthorized, w.Code)

		ck := sessionCookie(t, w)
		assert.Empty(t, ck.Value, "cookie cleared on invalid session")
	})

	t.Run("logout clears the cookie and is idempotent", func(t *testing.T) {
		r, repo, _ := seed()
		doJSON(r, http.MethodPost, "/api/auth/request-magic-link", `{"department":"ICT"}`, nil)
		token := repo.users["ictstaff@nmk.org"].MagicLinkToken
		w := doJSON(r, http.MethodPost, "/api/auth/verify-magic-link", `{"token":"`+token+`"}`, nil)
		ck := sessionCookie(t, w)

		w = doJSON(r, http.MethodPost, "/api/auth/logout", "", &http.Cookie{Name: ck.Name, Value: ck.Value})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sessionCookie(t, w).Value)

		// Session is gone server-side.
		w = doJSON(r, http.MethodGet, "/api/auth/check-session", "", &http.Cookie{Name: ck.Name, Value: ck.Value})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		// Logging out again, or with no cookie at all, still succeeds.
		w = doJSON(r, http.MethodPost, "/api/auth/logout", "", &http.Cookie{Name: ck.Name, Value: ck.Value})
		assert.Equal(t, http.StatusOK, w.Code)
		w = doJSON(r, http.MethodPost, "/api/auth/logout", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("magic link email carries the login link", func(t *testing.T) {
		r, repo, notifier := seed()
		doJSON(r, http.MethodPost, "/api/auth/request-magic-link", `{"department":"ICT"}`, nil)
		token := repo.users["ictstaff@nmk.org"].MagicLinkToken
		assert.Contains(t, notifier.body, "http://localhost:5000/?token="+token)
	})
}
