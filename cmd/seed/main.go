package main

import (
	"context"
	"log"

	"subscription-cancel-be/internal/config"
	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/repository/specification"
	"subscription-cancel-be/internal/repository/unitofwork"
	"subscription-cancel-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

type seedUser struct {
	Email        string
	MonthlyPrice int
}

// Development users, each with one active subscription.
var seedUsers = []seedUser{
	{Email: "user1@example.com", MonthlyPrice: 2500},
	{Email: "user2@example.com", MonthlyPrice: 2900},
	{Email: "user3@example.com", MonthlyPrice: 2500},
}

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	color.Cyan("Seeding users and subscriptions...")
	var created int
	err = unitofwork.WithinTransaction(ctx, uow, func(tx unitofwork.UnitOfWork) error {
		created, err = seed(ctx, tx)
		return err
	})
	if err != nil {
		log.Fatalf("Error: seeding failed: %v", err)
	}

	color.Green("Seeding completed: %d created, %d already present.", created, len(seedUsers)-created)
}

// seed creates missing users. Existing users are left untouched so the
// command can be re-run safely.
func seed(ctx context.Context, uow unitofwork.UnitOfWork) (int, error) {
	created := 0
	for _, su := range seedUsers {
		existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: su.Email})
		if err != nil {
			return created, err
		}
		if existing != nil {
			color.Yellow("User '%s' already exists, skipping...", su.Email)
			continue
		}

		user := &entity.User{Id: uuid.New(), Email: su.Email}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return created, err
		}
		sub := &entity.UserSubscription{
			Id:           uuid.New(),
			UserId:       user.Id,
			MonthlyPrice: su.MonthlyPrice,
			Status:       entity.SubscriptionStatusActive,
		}
		if err := uow.SubscriptionRepository().CreateSubscription(ctx, sub); err != nil {
			return created, err
		}

		color.Green("Created %s (%s/month)", su.Email, entity.FormatCents(su.MonthlyPrice))
		created++
	}
	return created, nil
}
