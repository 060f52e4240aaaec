// Package users owns the user lifecycle: create, update, deactivate and
// reactivate, each audited. Status transitions are idempotent no-ops when the
// account is already in the requested state; role grant/revoke, by contrast,
// stays strict (see internal/assign).
package users

import (
	"context"
	"strings"

	"user-directory-service/internal/assign"
	"user-directory-service/internal/audit"
	"user-directory-service/internal/domain"
	"user-directory-service/internal/store"
	"user-directory-service/pkg/utils"
)

// DefaultRoleName is granted to new users created without explicit roles.
const DefaultRoleName = "Regular User"

type Service struct {
	store *store.Store
	rec   *audit.Recorder
	inv   assign.Invalidator
}

func NewService(s *store.Store, rec *audit.Recorder, inv assign.Invalidator) *Service {
	return &Service{store: s, rec: rec, inv: inv}
}

type CreateInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	RoleIDs  []int64 `json:"roles"`
}

// Create registers an active user, hashes the credential, grants the default
// role when none are given, and audits users/INSERT. actorID zero means the
// new account acts for itself (bootstrap).
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (*domain.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, domain.Invalid("username", "required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, domain.Invalid("email", "required")
	}
	if in.Password == "" {
		return nil, domain.Invalid("password", "required")
	}

	u := &domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: utils.HashPassword(in.Password),
		Status:       domain.StatusActive,
	}
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		roleIDs := in.RoleIDs
		if len(roleIDs) == 0 {
			def, err := tx.GetRoleByName(ctx, DefaultRoleName)
			switch {
			case err == nil:
				roleIDs = []int64{def.ID}
			case !domain.IsNotFound(err):
				return err
			}
			// default role not seeded: the user starts role-less
		}
		actor := actorID
		if actor == 0 {
			actor = u.ID
		}
		for _, rid := range roleIDs {
			if _, err := tx.GetRole(ctx, rid); err != nil {
				return err
			}
			ur := &domain.UserRole{UserID: u.ID, RoleID: rid, AssignedBy: actor}
			if err := tx.CreateUserRole(ctx, ur); err != nil {
				return err
			}
		}
		_, err := s.rec.Record(ctx, tx, "users", domain.OpInsert, u.ID, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, u.ID)
	return u, nil
}

type UpdateInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Status   *string `json:"status"`
}

// Update applies the provided fields and audits users/UPDATE only when at
// least one value actually changed. The write is a conditional UPDATE inside
// the audit transaction, so concurrent identical updates collapse to one
// audit entry and a no-op update leaves no trace.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, actorID int64) (*domain.User, error) {
	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		return nil, domain.Invalid("username", "must not be empty")
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		return nil, domain.Invalid("email", "must not be empty")
	}
	if in.Status != nil && !domain.UserStatus(*in.Status).Valid() {
		return nil, domain.Invalid("status", "must be active or inactive")
	}
	var out *domain.User
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return err
		}
		username, email, status := u.Username, u.Email, u.Status
		if in.Username != nil {
			username = strings.TrimSpace(*in.Username)
		}
		if in.Email != nil {
			email = strings.TrimSpace(*in.Email)
		}
		if in.Status != nil {
			status = domain.UserStatus(*in.Status)
		}
		changed, err := tx.UpdateUserFields(ctx, id, username, email, status)
		if err != nil {
			return err
		}
		if !changed {
			out = u
			return nil
		}
		if out, err = tx.GetUser(ctx, id); err != nil {
			return err
		}
		_, err = s.rec.Record(ctx, tx, "users", domain.OpUpdate, id, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return out, nil
}

// Deactivate flips status to inactive, keeping every UserRole row for
// reactivation and audit. Deactivating an already-inactive user is a no-op
// success and emits no audit entry.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	return s.setStatus(ctx, id, actorID, domain.StatusInactive, domain.OpDelete)
}

// Reactivate is the inverse transition, same idempotency rule.
func (s *Service) Reactivate(ctx context.Context, id, actorID int64) error {
	return s.setStatus(ctx, id, actorID, domain.StatusActive, domain.OpUpdate)
}

// setStatus flips the status with a conditional UPDATE inside the audit
// transaction: only the caller whose UPDATE changed the row appends the audit
// entry, so racing transitions to the same state record exactly one flip.
func (s *Service) setStatus(ctx context.Context, id, actorID int64, target domain.UserStatus, op string) error {
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if _, err := tx.GetUser(ctx, id); err != nil {
			return err
		}
		flipped, err := tx.SetUserStatus(ctx, id, target)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		_, err = s.rec.Record(ctx, tx, "users", op, id, actorID)
		return err
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Authenticate verifies a credential for an active account. Inactive users
// cannot log in.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if u.Status != domain.StatusActive {
		return nil, domain.ErrInvalidCredentials
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.inv != nil {
		s.inv.InvalidateUser(ctx, userID)
	}
}
