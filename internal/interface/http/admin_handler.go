package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	repo "github.com/nmkdev/intern-management/internal/domain/repository"
	"github.com/nmkdev/intern-management/pkg/response"
	"github.com/nmkdev/intern-management/pkg/validation"
)

// AdminHandler exposes the user administration utilities: creating the
// departmental users that receive magic links, and moving a user between
// departments.
type AdminHandler struct {
	Users  repo.UserRepository
	Logger *logrus.Logger
}

func NewAdminHandler(users repo.UserRepository, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Logger: logger}
}

type createUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Role       string `json:"role" binding:"required,role"`
	Department string `json:"department"`
}

type updateDepartmentRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department" binding:"required"`
}

// CreateUser POST /api/users/create
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	role := entity.Role(req.Role)
	if role == entity.RoleStaff && req.Department == "" {
		response.Error(c, http.StatusBadRequest, "validation failed", map[string]string{"department": "is required for Staff users"})
		return
	}
	if role == entity.RoleHR {
		// HR is department-unscoped.
		req.Department = ""
	}

	u := &entity.User{Email: req.Email, Role: role, Department: req.Department}
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, application.ErrConflict) {
			response.Error(c, http.StatusConflict, "a user with this email already exists", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("user creation failed")
		}
		response.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"email": u.Email, "role": u.Role, "department": u.Department}, "user created successfully")
}

// UpdateDepartment POST /api/users/update-department
func (h *AdminHandler) UpdateDepartment(c *gin.Context) {
	var req updateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Users.SetDepartment(c.Request.Context(), req.Email, req.Department); err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("department update failed")
		}
		response.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": req.Email, "department": req.Department}, "user updated successfully")
}
