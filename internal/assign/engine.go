// Package assign computes which roles a user may still receive and performs
// grant/revoke with strict duplicate handling: a repeated grant is a
// Conflict, never a silent no-op, so the audit trail stays exact.
package assign

import (
	"context"

	"user-directory-service/internal/audit"
	"user-directory-service/internal/domain"
	"user-directory-service/internal/store"
)

// Invalidator drops cached read views after a write. A nil invalidator is
// valid and means no cache layer is configured.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64)
}

type Engine struct {
	store *store.Store
	rec   *audit.Recorder
	inv   Invalidator
}

func NewEngine(s *store.Store, rec *audit.Recorder, inv Invalidator) *Engine {
	return &Engine{store: s, rec: rec, inv: inv}
}

// AssignableRoles returns the roles the user does not yet hold, ordered by
// name. allAssigned distinguishes "empty because every role is held" from
// "empty because no roles exist".
func (e *Engine) AssignableRoles(ctx context.Context, userID int64) (roles []domain.Role, allAssigned bool, err error) {
	if _, err = e.store.GetUser(ctx, userID); err != nil {
		return nil, false, err
	}
	all, err := e.store.ListRoles(ctx)
	if err != nil {
		return nil, false, err
	}
	held, err := e.store.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	heldIDs := make(map[int64]struct{}, len(held))
	for _, ur := range held {
		heldIDs[ur.RoleID] = struct{}{}
	}
	roles = make([]domain.Role, 0, len(all))
	for _, r := range all {
		if _, ok := heldIDs[r.ID]; !ok {
			roles = append(roles, r)
		}
	}
	allAssigned = len(all) > 0 && len(roles) == 0
	return roles, allAssigned, nil
}

// Grant assigns roleID to userID on behalf of actorID. The grant and its
// audit entry commit in one transaction; the unique pair index rejects
// concurrent duplicates with exactly one Conflict.
func (e *Engine) Grant(ctx context.Context, userID, roleID, actorID int64) (*domain.UserRole, error) {
	var created *domain.UserRole
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.GetRole(ctx, roleID); err != nil {
			return err
		}
		ur := &domain.UserRole{UserID: userID, RoleID: roleID, AssignedBy: actorID}
		if err := tx.CreateUserRole(ctx, ur); err != nil {
			return err
		}
		if _, err := e.rec.Record(ctx, tx, "user_roles", domain.OpInsert, userID, actorID); err != nil {
			return err
		}
		created = ur
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.invalidate(ctx, userID)
	return created, nil
}

// Revoke removes the grant; NotFound when the pair does not exist.
func (e *Engine) Revoke(ctx context.Context, userID, roleID, actorID int64) error {
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteUserRole(ctx, userID, roleID); err != nil {
			return err
		}
		_, err := e.rec.Record(ctx, tx, "user_roles", domain.OpDelete, userID, actorID)
		return err
	})
	if err != nil {
		return err
	}
	e.invalidate(ctx, userID)
	return nil
}

// EffectivePermissions is the deduplicated union over the user's roles,
// ordered by permission name.
func (e *Engine) EffectivePermissions(ctx context.Context, userID int64) ([]domain.Permission, error) {
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return e.store.ListPermissionsForUser(ctx, userID)
}

func (e *Engine) invalidate(ctx context.Context, userID int64) {
	if e.inv != nil {
		e.inv.InvalidateUser(ctx, userID)
	}
}
