package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/pkg/helpers"
	"github.com/nmkdev/intern-management/pkg/response"
	"github.com/nmkdev/intern-management/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookies *helpers.CookieManager) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

type magicLinkRequest struct {
	Department string `json:"department" binding:"required"`
}

type verifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RequestMagicLink POST /api/auth/request-magic-link {department}
// Responds with the recipient email for UI display; the token itself only
// travels through the notifier.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	email, err := h.Svc.RequestLogin(c.Request.Context(), req.Department)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "no user found for this department", nil)
			return
		}
		if errors.Is(err, application.ErrDelivery) {
			// Token stays issued; only delivery failed.
			response.Error(c, http.StatusBadGateway, "failed to send magic link", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("magic link request failed")
		}
		response.Error(c, http.StatusInternalServerError, "failed to request magic link", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": email}, "magic link sent successfully")
}

// VerifyMagicLink POST /api/auth/verify-magic-link {token}
// Exchanges a live token for a session and sets the session cookie.
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	id, session, err := h.Svc.ConsumeLoginToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, application.ErrInvalidOrExpired) {
			response.Error(c, http.StatusUnauthorized, "invalid or expired magic link token", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("magic link verification failed")
		}
		response.Error(c, http.StatusInternalServerError, "error verifying magic link", nil)
		return
	}

	h.Cookies.SetSession(c, session.Token, session.ExpiresAt)
	response.Success(c, http.StatusOK, gin.H{"user": id}, "login successful")
}

// CheckSession GET /api/auth/check-session
// Returns the identity behind the session cookie; clears the cookie when the
// session is invalid or expired.
func (h *AuthHandler) CheckSession(c *gin.Context) {
	id, err := h.Svc.ResolveSession(c.Request.Context(), h.Cookies.Read(c))
	if err != nil {
		if errors.Is(err, application.ErrNoSession) {
			response.Error(c, http.StatusUnauthorized, "no session", nil)
			return
		}
		if errors.Is(err, application.ErrInvalidSession) {
			h.Cookies.Clear(c)
			response.Error(c, http.StatusUnauthorized, "invalid session", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "session check failed", nil)
		return
	}
	response.Success(c, http.StatusOK, id, "session valid")
}

// Logout POST /api/auth/logout
// Invalidates the session server-side and clears the cookie. Succeeds even
// when the credential is already invalid or absent.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), h.Cookies.Read(c)); err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("logout failed")
		}
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}
