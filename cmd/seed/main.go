package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/nmkdev/intern-management/config"
	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	"github.com/nmkdev/intern-management/internal/infrastructure/mongodb"
)

// Seeds the departmental Staff users and the HR user so the magic-link flow
// has recipients. Existing users are left untouched.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoConnTimeout)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	users := mongodb.NewUserRepository(db)
	seed := []*entity.User{
		{Email: "ictstaff@nmk.org", Role: entity.RoleStaff, Department: "ICT"},
		{Email: "financestaff@nmk.org", Role: entity.RoleStaff, Department: "Finance"},
		{Email: "marketingstaff@nmk.org", Role: entity.RoleStaff, Department: "Marketing"},
		{Email: "hr@nmk.org", Role: entity.RoleHR},
	}

	for _, u := range seed {
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, application.ErrConflict) {
				fmt.Printf("user exists: %s\n", u.Email)
				continue
			}
			log.Fatalf("failed to seed user %s: %v", u.Email, err)
		}
		fmt.Printf("seeded user: %s role=%s department=%q\n", u.Email, u.Role, u.Department)
	}
}
