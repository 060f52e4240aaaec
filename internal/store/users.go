package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"user-directory-service/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("user", dupField(err, "username", "email"))
		}
		return domain.Storage("create user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("user", id)
	}
	if err != nil {
		return nil, domain.Storage("get user", err)
	}
	return &u, nil
}

// GetUserByUsername matches case-sensitively, active or not.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.Error{Err: domain.ErrNotFound, Entity: "user", Detail: "username " + username}
	}
	if err != nil {
		return nil, domain.Storage("get user by username", err)
	}
	return &u, nil
}

// ListActiveUsers returns non-deactivated users ordered by id, matching the
// admin list view.
func (s *Store) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, domain.Storage("list users", err)
	}
	return users, nil
}

// SaveUser persists all fields of an already-loaded user.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("user", dupField(err, "username", "email"))
		}
		return domain.Storage("save user", err)
	}
	return nil
}

// SetUserStatus flips the status only when it differs from the current value,
// in one conditional UPDATE. Concurrent callers racing the same transition
// resolve at the row lock: exactly one observes a changed row. Returns whether
// this call performed the flip.
func (s *Store) SetUserStatus(ctx context.Context, id int64, status domain.UserStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND status <> ?", id, status).
		Update("status", status)
	if res.Error != nil {
		return false, domain.Storage("set user status", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdateUserFields rewrites the mutable columns only when at least one value
// differs, in one conditional UPDATE; the predicate is re-evaluated under the
// row lock so a concurrent identical update observes zero changed rows.
// Returns whether a row actually changed.
func (s *Store) UpdateUserFields(ctx context.Context, id int64, username, email string, status domain.UserStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND (username <> ? OR email <> ? OR status <> ?)", id, username, email, status).
		Updates(map[string]any{"username": username, "email": email, "status": status})
	if res.Error != nil {
		if isDupKey(res.Error) {
			return false, domain.Conflict("user", dupField(res.Error, "username", "email"))
		}
		return false, domain.Storage("update user", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// dupField picks which unique field a duplicate-key error names. The index
// name appears in the driver message for mysql, postgres and sqlite alike.
func dupField(err error, fields ...string) string {
	msg := strings.ToLower(err.Error())
	for _, f := range fields {
		if strings.Contains(msg, f) {
			return f
		}
	}
	return fields[0]
}
