package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	"github.com/nmkdev/intern-management/internal/domain/repository"
)

// InternRepository persists intern records in the interns collection.
// The update merge is one findAndModify combining $set and $push, so two
// concurrent updates to the same record both land their appended attachments.
type InternRepository struct {
	col *mongo.Collection
}

func NewInternRepository(db *mongo.Database) *InternRepository {
	return &InternRepository{col: db.Collection(InternsCollection)}
}

func (r *InternRepository) Insert(ctx context.Context, in *entity.Intern) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Attachments == nil {
		in.Attachments = []string{}
	}
	if in.Comments == nil {
		in.Comments = []entity.Comment{}
	}
	_, err := r.col.InsertOne(ctx, in)
	if mongo.IsDuplicateKeyError(err) {
		return application.ErrConflict
	}
	return err
}

func (r *InternRepository) GetByIDNumber(ctx context.Context, idNumber string) (*entity.Intern, error) {
	in := &entity.Intern{}
	err := r.col.FindOne(ctx, bson.M{"idNumber": idNumber}).Decode(in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (r *InternRepository) Update(ctx context.Context, idNumber string, profile entity.InternProfile, newAttachments []string, profilePicture, updatedBy string) (*entity.Intern, error) {
	set := bson.M{
		"fullName":              profile.FullName,
		"institution":           profile.Institution,
		"department":            profile.Department,
		"monthJoined":           profile.MonthJoined,
		"startDate":             profile.StartDate,
		"endDate":               profile.EndDate,
		"phoneNumber":           profile.PhoneNumber,
		"amountPaid":            profile.AmountPaid,
		"receiptNumber":         profile.ReceiptNumber,
		"institutionSupervisor": profile.InstitutionSupervisor,
		"updatedAt":             time.Now(),
	}
	// Replaced wholesale only when a new file was supplied.
	if profilePicture != "" {
		set["profilePicture"] = profilePicture
	}
	if updatedBy != "" {
		set["updatedByStaffEmail"] = updatedBy
	}
	update := bson.M{"$set": set}
	if len(newAttachments) > 0 {
		update["$push"] = bson.M{"attachments": bson.M{"$each": newAttachments}}
	}

	after := options.After
	in := &entity.Intern{}
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"idNumber": idNumber},
		update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (r *InternRepository) SetStatus(ctx context.Context, idNumber string, status entity.Status, hrEmail string) (*entity.Intern, error) {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if hrEmail != "" {
		set["statusChangedByHREmail"] = hrEmail
	}
	after := options.After
	in := &entity.Intern{}
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"idNumber": idNumber},
		bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (r *InternRepository) Delete(ctx context.Context, idNumber string) (*entity.Intern, error) {
	in := &entity.Intern{}
	err := r.col.FindOneAndDelete(ctx, bson.M{"idNumber": idNumber}).Decode(in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (r *InternRepository) AddComment(ctx context.Context, idNumber string, c entity.Comment) (*entity.Intern, error) {
	after := options.After
	in := &entity.Intern{}
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"idNumber": idNumber},
		bson.M{
			"$push": bson.M{"comments": c},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (r *InternRepository) List(ctx context.Context, department string) ([]*entity.Intern, error) {
	filter := bson.M{}
	if department != "" {
		filter["department"] = department
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]*entity.Intern, 0)
	for cur.Next(ctx) {
		in := &entity.Intern{}
		if err := cur.Decode(in); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.InternRepository = (*InternRepository)(nil)
