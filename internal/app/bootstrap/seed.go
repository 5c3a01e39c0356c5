// internal/app/bootstrap/seed.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	adminstore "github.com/dalemusser/placementhub/internal/app/store/admins"
	"github.com/dalemusser/placementhub/internal/app/system/authutil"
	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedAdmin creates an admin or, when the email exists, promotes it and
// re-enables it. An existing password is left unless password is non-empty.
// A new admin with no password gets an unusable hash and must use the
// forgot-password flow.
func SeedAdmin(ctx context.Context, db *mongo.Database, email, name, password string, super bool, logger *zap.Logger) (models.Admin, bool, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.Admin{}, false, errors.New("email is required")
	}

	var hash string
	var err error
	if password != "" {
		if err := authutil.ValidatePassword(password); err != nil {
			return models.Admin{}, false, err
		}
		hash, err = authutil.HashPassword(password)
	} else {
		hash, err = authutil.UnusableHash()
	}
	if err != nil {
		return models.Admin{}, false, fmt.Errorf("hash password: %w", err)
	}

	admins := adminstore.New(db)
	existing, err := admins.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, adminstore.ErrNotFound):
		if name == "" {
			name = "Administrator"
		}
		a, err := admins.Create(ctx, models.Admin{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			SuperAdmin:   super,
		})
		if err != nil {
			return models.Admin{}, false, err
		}
		logger.Info("admin created", zap.String("email", email), zap.Bool("super_admin", super))
		if password == "" {
			logger.Warn("admin has no password; use forgot-password to set one", zap.String("email", email))
		}
		return a, true, nil
	case err != nil:
		return models.Admin{}, false, err
	}

	active := "active"
	p := adminstore.Patch{Status: &active}
	if super && !existing.SuperAdmin {
		p.SuperAdmin = &super
	}
	if name != "" {
		p.Name = &name
	}
	if password != "" {
		p.PasswordHash = &hash
	}
	a, err := admins.Update(ctx, existing.ID, p)
	if err != nil {
		return models.Admin{}, false, err
	}
	if p.SuperAdmin != nil {
		logger.Info("admin promoted to superadmin", zap.String("email", email))
	}
	return a, false, nil
}
