// Package testutil opens throwaway stores and seeds accounts for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"scholarcrm/internal/database"
	"scholarcrm/internal/database/migrations"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/user"
)

// NewDB returns a migrated in-memory SQLite store private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Connect(dsn, database.Options{Silent: true})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, migrations.Run(db), "migrate")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// UserOption adjusts a seeded account.
type UserOption func(*user.UserProfile)

func WithReferralCode(code string) UserOption {
	return func(u *user.UserProfile) { u.ReferralCode = &code }
}

func WithReferredBy(code string) UserOption {
	return func(u *user.UserProfile) { u.ReferredBy = &code }
}

func WithCommissionRate(rate int64) UserOption {
	return func(u *user.UserProfile) { u.CommissionRate = rate }
}

func WithEmail(email string) UserOption {
	return func(u *user.UserProfile) { u.Email = email }
}

// Password is the plain-text password of every seeded account.
const Password = "password123"

// CreateUser inserts an account with the given id and role.
func CreateUser(t *testing.T, db *gorm.DB, uid string, role domain.Role, opts ...UserOption) *user.UserProfile {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &user.UserProfile{
		UID:          uid,
		Role:         role,
		Name:         uid,
		Email:        strings.ToLower(uid) + "@example.com",
		PasswordHash: string(hash),
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
