package main

import (
	"context"
	"errors"
	"fmt"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newSeedAdminCmd() *cobra.Command {
	var username, password, email string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account, or grant admin to an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			created, err := seedAdmin(cmd.Context(), db, username, password, email)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("admin %q created\n", username)
			} else {
				cmd.Printf("admin role granted to existing user %q\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// seedAdmin reports whether a new user was created.
func seedAdmin(ctx context.Context, db *gorm.DB, username, password, email string) (bool, error) {
	users := repositories.NewUserRepository(db, nil)

	existing, err := users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return false, users.GrantRole(ctx, existing.ID, models.RoleAdmin)
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return false, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Roles:    models.NewRoleSet(models.RoleAdmin, models.RoleClient),
	}
	if err := users.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

var defaultMerchantPackages = []models.MerchantPackage{
	{Name: "Basic", MonthlyPrice: decimal.NewFromInt(0), TransactionFeePercent: decimal.RequireFromString("3.00"), MaxPaymentLinks: 10, IsActive: true},
	{Name: "Pro", MonthlyPrice: decimal.NewFromInt(50), TransactionFeePercent: decimal.RequireFromString("2.00"), MaxPaymentLinks: 100, IsActive: true},
	{Name: "Enterprise", MonthlyPrice: decimal.NewFromInt(200), TransactionFeePercent: decimal.RequireFromString("1.00"), MaxPaymentLinks: 1000, IsActive: true},
}

var defaultMessagePackages = []models.MessagePackage{
	{Name: "Starter", PlanCode: "starter", MessageCount: 100, Price: decimal.NewFromInt(10), DurationDays: 30, IsActive: true},
	{Name: "Business", PlanCode: "business", MessageCount: 1000, Price: decimal.NewFromInt(80), DurationDays: 30, IsActive: true},
	{Name: "Scale", PlanCode: "scale", MessageCount: 10000, Price: decimal.NewFromInt(600), DurationDays: 90, IsActive: true},
}

func newSeedPackagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-packages",
		Short: "Create the default merchant and message packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := seedPackages(cmd.Context(), db)
			if err != nil {
				return err
			}
			cmd.Printf("%d packages created\n", n)
			return nil
		},
	}
}

// seedPackages creates the defaults that do not exist yet and returns how many
// it created.
func seedPackages(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	packages := repositories.NewPackageRepository(db)
	for _, p := range defaultMerchantPackages {
		_, err := packages.GetByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrPackageNotFound) {
			return created, err
		}
		p := p
		if err := packages.Create(ctx, &p); err != nil {
			return created, fmt.Errorf("create package %s: %w", p.Name, err)
		}
		created++
	}

	messaging := repositories.NewMessagingRepository(db)
	for _, p := range defaultMessagePackages {
		exists, err := messaging.PackageExists(ctx, p.PlanCode)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		p := p
		if err := messaging.CreatePackage(ctx, &p); err != nil {
			return created, fmt.Errorf("create message package %s: %w", p.PlanCode, err)
		}
		created++
	}
	return created, nil
}
