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

// UserRepository persists users in the users collection. Every token
// transition is a single findAndModify so issuance and consumption are
// atomic per user.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = entity.NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return application.ErrConflict
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u := &entity.User{}
	err := r.col.FindOne(ctx, bson.M{"email": entity.NormalizeEmail(email)}).Decode(u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) SetDepartment(ctx context.Context, email, department string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": entity.NormalizeEmail(email)},
		bson.M{"$set": bson.M{"department": department, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *UserRepository) IssueMagicLink(ctx context.Context, department, token string, expires time.Time) (*entity.User, error) {
	after := options.After
	u := &entity.User{}
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"department": department},
		bson.M{"$set": bson.M{
			"magicLinkToken":        token,
			"magicLinkTokenExpires": expires,
			"updatedAt":             time.Now(),
		}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ConsumeMagicLink(ctx context.Context, token string, now time.Time, sessionToken string, sessionExpires time.Time) (*entity.User, error) {
	after := options.After
	u := &entity.User{}
	// Match-and-swap in one command: the token is only consumed if it is
	// still live, and the consumer that wins installs the session. A second
	// concurrent consumer no longer matches.
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{
			"magicLinkToken":        token,
			"magicLinkTokenExpires": bson.M{"$gt": now},
		},
		bson.M{
			"$set": bson.M{
				"sessionToken":   sessionToken,
				"sessionExpires": sessionExpires,
				"updatedAt":      now,
			},
			"$unset": bson.M{
				"magicLinkToken":        "",
				"magicLinkTokenExpires": "",
			},
		},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ClearMagicLink(ctx context.Context, token string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"magicLinkToken": token},
		bson.M{"$unset": bson.M{"magicLinkToken": "", "magicLinkTokenExpires": ""}},
	)
	return err
}

func (r *UserRepository) GetBySession(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	u := &entity.User{}
	err := r.col.FindOne(ctx, bson.M{
		"sessionToken":   token,
		"sessionExpires": bson.M{"$gt": now},
	}).Decode(u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ClearSession(ctx context.Context, token string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"sessionToken": token},
		bson.M{"$unset": bson.M{"sessionToken": "", "sessionExpires": ""}},
	)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
