package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"user-directory-service/internal/domain"
)

// Roles and permissions are reference data: the store only enumerates them.
// Seeding happens out of band (cmd/seed).

func (s *Store) GetRole(ctx context.Context, id int64) (*domain.Role, error) {
	var r domain.Role
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("role", id)
	}
	if err != nil {
		return nil, domain.Storage("get role", err)
	}
	return &r, nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	var r domain.Role
	err := s.db.WithContext(ctx).First(&r, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.Error{Err: domain.ErrNotFound, Entity: "role", Detail: "name " + name}
	}
	if err != nil {
		return nil, domain.Storage("get role by name", err)
	}
	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if err := s.db.WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, domain.Storage("list roles", err)
	}
	return roles, nil
}

// ListPermissionsForUser is the effective permission set: the deduplicated
// union of permissions over every role the user currently holds.
func (s *Store) ListPermissionsForUser(ctx context.Context, userID int64) ([]domain.Permission, error) {
	var perms []domain.Permission
	err := s.db.WithContext(ctx).
		Distinct("permissions.*").
		Table("permissions").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", userID).
		Order("permissions.name").
		Find(&perms).Error
	if err != nil {
		return nil, domain.Storage("list user permissions", err)
	}
	return perms, nil
}
