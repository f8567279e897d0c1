package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/nmkdev/intern-management/internal/domain/entity"
	repo "github.com/nmkdev/intern-management/internal/domain/repository"
)

// UploadSet carries the blob path references produced for one request's
// uploaded files. Empty fields mean the file was not supplied. The document
// slots map onto the attachment list in a fixed order.
type UploadSet struct {
	Letter           string
	IDCopy           string
	AcceptanceLetter string
	ReceiptCopy      string
	ProfilePicture   string
}

// AttachmentPaths returns the supplied document paths in their canonical
// order: letter, idCopy, acceptanceLetter, receiptCopy.
func (u UploadSet) AttachmentPaths() []string {
	paths := make([]string, 0, 4)
	for _, p := range []string{u.Letter, u.IDCopy, u.AcceptanceLetter, u.ReceiptCopy} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// InternService implements the record operations: create, update, status
// change, delete, comments, listing and search. It trusts the caller to have
// resolved the actor's identity, and enforces the role gates itself:
// Staff for create/update/delete, HR for status changes.
type InternService struct {
	Interns repo.InternRepository
	Blobs   BlobStore
	Logger  *logrus.Logger

	ES      *elasticsearch.Client
	ESIndex string
}

func NewInternService(interns repo.InternRepository, blobs BlobStore, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *InternService {
	return &InternService{Interns: interns, Blobs: blobs, Logger: logger, ES: es, ESIndex: esIndex}
}

func validateProfile(p entity.InternProfile) *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(p.IDNumber) == "" {
		fields["idNumber"] = "is required"
	}
	if strings.TrimSpace(p.FullName) == "" {
		fields["fullName"] = "is required"
	}
	if strings.TrimSpace(p.Institution) == "" {
		fields["institution"] = "is required"
	}
	if strings.TrimSpace(p.Department) == "" {
		fields["department"] = "is required"
	}
	if strings.TrimSpace(p.MonthJoined) == "" {
		fields["monthJoined"] = "is required"
	}
	if p.StartDate.IsZero() {
		fields["startDate"] = "is required"
	}
	if p.EndDate.IsZero() {
		fields["endDate"] = "is required"
	}
	if strings.TrimSpace(p.PhoneNumber) == "" {
		fields["phoneNumber"] = "is required"
	}
	if p.AmountPaid < 0 {
		fields["amountPaid"] = "must be zero or positive"
	}
	if strings.TrimSpace(p.ReceiptNumber) == "" {
		fields["receiptNumber"] = "is required"
	}
	if strings.TrimSpace(p.InstitutionSupervisor) == "" {
		fields["institutionSupervisor"] = "is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return NewValidationError(fields)
}

// Create stores a new intern record. Staff only. The attachment list is built
// from the supplied documents in canonical order; comments start empty.
// Returns ErrConflict when the idNumber is already taken, leaving the
// original record untouched.
func (s *InternService) Create(ctx context.Context, actor entity.Identity, profile entity.InternProfile, uploads UploadSet) (*entity.Intern, error) {
	if actor.Role != entity.RoleStaff {
		return nil, ErrForbidden
	}
	if verr := validateProfile(profile); verr != nil {
		return nil, verr
	}

	now := time.Now()
	in := &entity.Intern{
		IDNumber:              profile.IDNumber,
		FullName:              profile.FullName,
		Institution:           profile.Institution,
		Department:            profile.Department,
		MonthJoined:           profile.MonthJoined,
		StartDate:             profile.StartDate,
		EndDate:               profile.EndDate,
		PhoneNumber:           profile.PhoneNumber,
		AmountPaid:            profile.AmountPaid,
		ReceiptNumber:         profile.ReceiptNumber,
		InstitutionSupervisor: profile.InstitutionSupervisor,
		Attachments:           uploads.AttachmentPaths(),
		ProfilePicture:        uploads.ProfilePicture,
		Comments:              []entity.Comment{},
		Status:                entity.StatusActive,
		AddedByStaffEmail:     actor.Email,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.Interns.Insert(ctx, in); err != nil {
		return nil, err
	}
	s.index(ctx, in)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"idNumber": in.IDNumber, "by": actor.Email}).Info("intern created")
	}
	return in, nil
}

// Update applies the merge policy to an existing record. Staff only.
// New attachments are appended to the existing list, never replacing it;
// the profile picture is replaced only when a new file was supplied; comments
// are untouched; the idNumber itself is immutable. The merge runs as a single
// conditional update in the store, so two concurrent updates cannot drop each
// other's appended attachments.
func (s *InternService) Update(ctx context.Context, actor entity.Identity, idNumber string, profile entity.InternProfile, uploads UploadSet) (*entity.Intern, error) {
	if actor.Role != entity.RoleStaff {
		return nil, ErrForbidden
	}
	// The identity is taken from the URL, not the payload.
	profile.IDNumber = idNumber
	if verr := validateProfile(profile); verr != nil {
		return nil, verr
	}

	updated, err := s.Interns.Update(ctx, idNumber, profile, uploads.AttachmentPaths(), uploads.ProfilePicture, actor.Email)
	if err != nil {
		return nil, err
	}
	s.index(ctx, updated)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"idNumber": idNumber, "by": actor.Email}).Info("intern updated")
	}
	return updated, nil
}

// SetStatus moves a record to one of the four enumerated statuses. HR only.
// Any status may move to any other; no transition graph is enforced here.
func (s *InternService) SetStatus(ctx context.Context, actor entity.Identity, idNumber string, status entity.Status) (*entity.Intern, error) {
	if actor.Role != entity.RoleHR {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, NewValidationError(map[string]string{"status": "must be one of: Active, Suspended, Expelled, Completed"})
	}
	updated, err := s.Interns.SetStatus(ctx, idNumber, status, actor.Email)
	if err != nil {
		return nil, err
	}
	s.index(ctx, updated)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"idNumber": idNumber, "status": status, "by": actor.Email}).Info("intern status changed")
	}
	return updated, nil
}

// Delete removes a record and releases its blobs. Staff only. Blob release is
// best-effort: a failed release is logged and never aborts the deletion —
// the database record is authoritative.
func (s *InternService) Delete(ctx context.Context, actor entity.Identity, idNumber string) error {
	if actor.Role != entity.RoleStaff {
		return ErrForbidden
	}
	deleted, err := s.Interns.Delete(ctx, idNumber)
	if err != nil {
		return err
	}

	refs := append([]string{}, deleted.Attachments...)
	if deleted.ProfilePicture != "" {
		refs = append(refs, deleted.ProfilePicture)
	}
	for _, ref := range refs {
		if err := s.Blobs.Release(ctx, ref); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("path", ref).Warn("failed to release blob")
		}
	}

	s.deindex(ctx, idNumber)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"idNumber": idNumber, "by": actor.Email}).Info("intern deleted")
	}
	return nil
}

// AddComment appends an immutable comment to a record. Either role may
// comment. Text, author and author email are all required.
func (s *InternService) AddComment(ctx context.Context, idNumber, text, author, authorEmail string) (*entity.Intern, error) {
	fields := map[string]string{}
	if strings.TrimSpace(text) == "" {
		fields["text"] = "is required"
	}
	if strings.TrimSpace(author) == "" {
		fields["author"] = "is required"
	}
	if strings.TrimSpace(authorEmail) == "" {
		fields["authorEmail"] = "is required"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	c := entity.Comment{Text: text, Author: author, AuthorEmail: authorEmail, Timestamp: time.Now()}
	return s.Interns.AddComment(ctx, idNumber, c)
}

// List returns intern records. Staff callers are always scoped to their own
// department regardless of the requested filter; HR may filter freely or see
// everything.
func (s *InternService) List(ctx context.Context, actor entity.Identity, department string) ([]*entity.Intern, error) {
	if actor.Role == entity.RoleStaff {
		department = actor.Department
	}
	return s.Interns.List(ctx, department)
}

// Search performs a full-text query over the secondary index. Returns an
// empty result set when no index is configured.
func (s *InternService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"idNumber^2", "fullName^2", "institution", "department"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// index pushes a record into the secondary search index. Best-effort: the
// primary write has already succeeded and indexing failures are only logged.
func (s *InternService) index(ctx context.Context, in *entity.Intern) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"idNumber":    in.IDNumber,
		"fullName":    in.FullName,
		"institution": in.Institution,
		"department":  in.Department,
		"status":      in.Status,
		"updated_at":  in.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: in.IDNumber, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("idNumber", in.IDNumber).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"status": res.Status(), "idNumber": in.IDNumber}).Warn("es index response error")
	}
}

func (s *InternService) deindex(ctx context.Context, idNumber string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: idNumber}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("idNumber", idNumber).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// errors.As helper kept close to the service so handlers translate uniformly.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
