package repository

import (
	"context"

	"github.com/nmkdev/intern-management/internal/domain/entity"
)

// InternRepository defines intern record persistence. Update and AddComment
// are specified as single conditional updates (set + push in one command)
// rather than read-then-write, so concurrent updates to the same record
// cannot drop each other's appended attachments or comments.
type InternRepository interface {
	// Insert stores a new record. Returns ErrConflict when the idNumber is
	// already taken (unique index violation).
	Insert(ctx context.Context, in *entity.Intern) error

	GetByIDNumber(ctx context.Context, idNumber string) (*entity.Intern, error)

	// Update applies the profile fields and atomically appends newAttachments
	// to the existing attachment list. profilePicture is replaced only when
	// non-empty. Comments and idNumber are never touched. Returns the updated
	// record or ErrNotFound.
	Update(ctx context.Context, idNumber string, profile entity.InternProfile, newAttachments []string, profilePicture, updatedBy string) (*entity.Intern, error)

	// SetStatus updates the status and the HR audit email.
	SetStatus(ctx context.Context, idNumber string, status entity.Status, hrEmail string) (*entity.Intern, error)

	// Delete removes the record and returns it, so the caller can release the
	// associated blobs. Returns ErrNotFound when unknown.
	Delete(ctx context.Context, idNumber string) (*entity.Intern, error)

	// AddComment atomically appends a comment to the record's list.
	AddComment(ctx context.Context, idNumber string, c entity.Comment) (*entity.Intern, error)

	// List returns all records, or only those in department when non-empty.
	List(ctx context.Context, department string) ([]*entity.Intern, error)
}
