// Package store is the directory store: users, roles, permissions and the
// associations between them, persisted through gorm. Writes are atomic per
// row; uniqueness violations surface as domain.Conflict and unknown ids as
// domain.NotFound.
package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"user-directory-service/internal/domain"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for migrations and seeding.
func (s *Store) DB() *gorm.DB { return s.db }

// AutoMigrate creates or updates every table the engine owns.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.RolePermission{},
		&domain.UserRole{},
		&domain.AuditEntry{},
	)
}

// WithTx runs fn inside a single transaction. Mutations and their audit
// appends commit together: if the append fails the mutation rolls back, so
// the log never has silent gaps.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// isDupKey matches unique-violation messages across mysql, postgres and
// sqlite without depending on driver-specific error types.
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
