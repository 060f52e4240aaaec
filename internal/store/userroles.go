package store

import (
	"context"
	"time"

	"user-directory-service/internal/domain"
)

// CreateUserRole inserts a grant. The unique (user_id, role_id) index makes
// concurrent duplicate grants resolve to one success and one Conflict.
func (s *Store) CreateUserRole(ctx context.Context, ur *domain.UserRole) error {
	if err := s.db.WithContext(ctx).Create(ur).Error; err != nil {
		if isDupKey(err) {
			return &domain.Error{Err: domain.ErrConflict, Entity: "user_role", Detail: "role already assigned"}
		}
		return domain.Storage("create user role", err)
	}
	return nil
}

// DeleteUserRole removes a grant; NotFound when the pair does not exist.
func (s *Store) DeleteUserRole(ctx context.Context, userID, roleID int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&domain.UserRole{})
	if res.Error != nil {
		return domain.Storage("delete user role", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.Error{Err: domain.ErrNotFound, Entity: "user_role", Detail: "role not assigned"}
	}
	return nil
}

func (s *Store) ListUserRoles(ctx context.Context, userID int64) ([]domain.UserRole, error) {
	var urs []domain.UserRole
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&urs).Error
	if err != nil {
		return nil, domain.Storage("list user roles", err)
	}
	return urs, nil
}

// ListUserRolesByUserIDs batch-loads assignments for many users in one query
// so list views avoid a round trip per user.
func (s *Store) ListUserRolesByUserIDs(ctx context.Context, userIDs []int64) ([]domain.UserRole, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var urs []domain.UserRole
	err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&urs).Error
	if err != nil {
		return nil, domain.Storage("batch list user roles", err)
	}
	return urs, nil
}

// HeldRole pairs a role with the provenance of its grant.
type HeldRole struct {
	Role       domain.Role `json:"role"`
	AssignedAt time.Time   `json:"assigned_at"`
	AssignedBy int64       `json:"assigned_by"`
}

// ListHeldRoles returns the user's roles with assignment provenance, ordered
// by role name.
func (s *Store) ListHeldRoles(ctx context.Context, userID int64) ([]HeldRole, error) {
	urs, err := s.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(urs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(urs))
	byRole := make(map[int64]domain.UserRole, len(urs))
	for _, ur := range urs {
		ids = append(ids, ur.RoleID)
		byRole[ur.RoleID] = ur
	}
	var roles []domain.Role
	err = s.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&roles).Error
	if err != nil {
		return nil, domain.Storage("list held roles", err)
	}
	held := make([]HeldRole, 0, len(roles))
	for _, r := range roles {
		ur := byRole[r.ID]
		held = append(held, HeldRole{Role: r, AssignedAt: ur.AssignedAt, AssignedBy: ur.AssignedBy})
	}
	return held, nil
}
