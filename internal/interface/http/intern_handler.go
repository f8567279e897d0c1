package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	"github.com/nmkdev/intern-management/internal/interface/middleware"
	"github.com/nmkdev/intern-management/pkg/response"
	"github.com/nmkdev/intern-management/pkg/validation"
)

const dateLayout = "2006-01-02"

// documentFields maps multipart field names onto the UploadSet slots, in the
// canonical attachment order.
var documentFields = []string{"letter", "idCopy", "acceptanceLetter", "receiptCopy"}

type InternHandler struct {
	Svc    *application.InternService
	Blobs  application.BlobStore
	Logger *logrus.Logger
}

func NewInternHandler(svc *application.InternService, blobs application.BlobStore, logger *logrus.Logger) *InternHandler {
	return &InternHandler{Svc: svc, Blobs: blobs, Logger: logger}
}

// writeServiceError translates the service error taxonomy into HTTP.
func (h *InternHandler) writeServiceError(c *gin.Context, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, application.ErrNotFound):
		response.Error(c, http.StatusNotFound, "intern not found", nil)
	case errors.Is(err, application.ErrConflict):
		response.Error(c, http.StatusConflict, "an intern with this idNumber already exists", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("intern operation failed")
		}
		response.Error(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// parseProfile reads the multipart form fields into a profile, collecting a
// message per malformed field. Missing required fields are left zero for the
// service to enumerate.
func parseProfile(c *gin.Context) (entity.InternProfile, map[string]string) {
	bad := map[string]string{}
	p := entity.InternProfile{
		IDNumber:              c.PostForm("idNumber"),
		FullName:              c.PostForm("fullName"),
		Institution:           c.PostForm("institution"),
		Department:            c.PostForm("department"),
		MonthJoined:           c.PostForm("monthJoined"),
		PhoneNumber:           c.PostForm("phoneNumber"),
		ReceiptNumber:         c.PostForm("receiptNumber"),
		InstitutionSupervisor: c.PostForm("institutionSupervisor"),
	}
	if v := c.PostForm("startDate"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			bad["startDate"] = "must be a date in YYYY-MM-DD format"
		} else {
			p.StartDate = t
		}
	}
	if v := c.PostForm("endDate"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			bad["endDate"] = "must be a date in YYYY-MM-DD format"
		} else {
			p.EndDate = t
		}
	}
	if v := c.PostForm("amountPaid"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			bad["amountPaid"] = "must be a number"
		} else {
			p.AmountPaid = f
		}
	}
	return p, bad
}

func (h *InternHandler) storeFile(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return h.Blobs.Store(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
}

// collectUploads stores each supplied file and returns the resulting path
// references in their UploadSet slots.
func (h *InternHandler) collectUploads(c *gin.Context) (application.UploadSet, error) {
	var set application.UploadSet
	slots := map[string]*string{
		"letter":           &set.Letter,
		"idCopy":           &set.IDCopy,
		"acceptanceLetter": &set.AcceptanceLetter,
		"receiptCopy":      &set.ReceiptCopy,
		"profilePicture":   &set.ProfilePicture,
	}
	for _, name := range append(append([]string{}, documentFields...), "profilePicture") {
		fh, err := c.FormFile(name)
		if err != nil {
			continue // field not supplied
		}
		path, err := h.storeFile(c, fh)
		if err != nil {
			return set, err
		}
		*slots[name] = path
	}
	return set, nil
}

// Create POST /api/interns (multipart) — Staff.
func (h *InternHandler) Create(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)

	profile, bad := parseProfile(c)
	if len(bad) > 0 {
		response.Error(c, http.StatusBadRequest, "validation failed", bad)
		return
	}
	uploads, err := h.collectUploads(c)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("file upload failed")
		}
		response.Error(c, http.StatusInternalServerError, "file upload failed", nil)
		return
	}

	intern, err := h.Svc.Create(c.Request.Context(), actor, profile, uploads)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, intern, "intern added successfully")
}

// Update PUT /api/interns/:idNumber (multipart) — Staff.
func (h *InternHandler) Update(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)
	idNumber := c.Param("idNumber")

	profile, bad := parseProfile(c)
	if len(bad) > 0 {
		response.Error(c, http.StatusBadRequest, "validation failed", bad)
		return
	}
	uploads, err := h.collectUploads(c)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("file upload failed")
		}
		response.Error(c, http.StatusInternalServerError, "file upload failed", nil)
		return
	}

	intern, err := h.Svc.Update(c.Request.Context(), actor, idNumber, profile, uploads)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, intern, "intern updated successfully")
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus PATCH /api/interns/:idNumber/status — HR.
func (h *InternHandler) SetStatus(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)
	idNumber := c.Param("idNumber")

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	intern, err := h.Svc.SetStatus(c.Request.Context(), actor, idNumber, entity.Status(req.Status))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, intern, "intern status updated successfully")
}

// Delete DELETE /api/interns/:idNumber — Staff.
func (h *InternHandler) Delete(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)
	if err := h.Svc.Delete(c.Request.Context(), actor, c.Param("idNumber")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "intern deleted successfully")
}

type addCommentRequest struct {
	Text        string `json:"text"`
	Author      string `json:"author"`
	AuthorEmail string `json:"authorEmail"`
}

// AddComment POST /api/interns/:idNumber/comments — either role.
func (h *InternHandler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	intern, err := h.Svc.AddComment(c.Request.Context(), c.Param("idNumber"), req.Text, req.Author, req.AuthorEmail)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, intern, "comment added successfully")
}

// List GET /api/interns?department= — Staff see their own department, HR all.
func (h *InternHandler) List(c *gin.Context) {
	actor, _ := middleware.IdentityFrom(c)
	interns, err := h.Svc.List(c.Request.Context(), actor, c.Query("department"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, interns, "interns")
}

// Search GET /api/interns/search?q=&size=
func (h *InternHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("search failed")
		}
		response.Error(c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results")
}
