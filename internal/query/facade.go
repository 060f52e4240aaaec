// Package query composes read views for display: user-with-roles, the
// batched all-users view and the per-user detail. Reads are side-effect free
// and underlying failures propagate unchanged.
package query

import (
	"context"
	"fmt"
	"time"

	"user-directory-service/internal/core/cache"
	"user-directory-service/internal/domain"
	"user-directory-service/internal/store"
)

const (
	keyAllUsersWithRoles = "users:with-roles"
	cacheTTL             = 30 * time.Second
)

type Facade struct {
	store *store.Store
	cache *cache.Cache // nil disables caching
}

func NewFacade(s *store.Store, c *cache.Cache) *Facade {
	return &Facade{store: s, cache: c}
}

// RoleGrant is a held role plus its provenance.
type RoleGrant struct {
	RoleID     int64     `json:"role_id"`
	Name       string    `json:"name"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy int64     `json:"assigned_by"`
}

type UserWithRoles struct {
	domain.User
	Roles []RoleGrant `json:"roles"`
}

type UserDetail struct {
	UserWithRoles
	Metadata map[string]any `json:"metadata"`
}

// Users is the plain active-user listing.
func (f *Facade) Users(ctx context.Context) ([]domain.User, error) {
	return f.store.ListActiveUsers(ctx)
}

func (f *Facade) UserWithRoles(ctx context.Context, id int64) (*UserWithRoles, error) {
	u, err := f.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	held, err := f.store.ListHeldRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserWithRoles{User: *u, Roles: grants(held)}, nil
}

// AllUsersWithRoles loads users once and batch-loads their assignments, then
// joins in memory: one pass, no per-user round trips.
func (f *Facade) AllUsersWithRoles(ctx context.Context) ([]UserWithRoles, error) {
	if f.cache != nil {
		out, err := cache.GetOrLoadJSON[[]UserWithRoles](f.cache, ctx, keyAllUsersWithRoles, cacheTTL,
			func(ctx context.Context) (*[]UserWithRoles, error) {
				v, err := f.loadAllUsersWithRoles(ctx)
				if err != nil {
					return nil, err
				}
				return &v, nil
			})
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
		return *out, nil
	}
	return f.loadAllUsersWithRoles(ctx)
}

func (f *Facade) loadAllUsersWithRoles(ctx context.Context) ([]UserWithRoles, error) {
	users, err := f.store.ListActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	assignments, err := f.store.ListUserRolesByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	roles, err := f.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	roleByID := make(map[int64]domain.Role, len(roles))
	for _, r := range roles {
		roleByID[r.ID] = r
	}
	grantsByUser := make(map[int64][]RoleGrant, len(users))
	for _, ur := range assignments {
		r, ok := roleByID[ur.RoleID]
		if !ok {
			continue
		}
		grantsByUser[ur.UserID] = append(grantsByUser[ur.UserID], RoleGrant{
			RoleID:     r.ID,
			Name:       r.Name,
			AssignedAt: ur.AssignedAt,
			AssignedBy: ur.AssignedBy,
		})
	}
	out := make([]UserWithRoles, 0, len(users))
	for _, u := range users {
		out = append(out, UserWithRoles{User: u, Roles: grantsByUser[u.ID]})
	}
	return out, nil
}

// UserDetail is the single-user view with the metadata map the admin panel
// renders alongside the account.
func (f *Facade) UserDetail(ctx context.Context, id int64) (*UserDetail, error) {
	if f.cache != nil {
		return cache.GetOrLoadJSON[UserDetail](f.cache, ctx, userDetailKey(id), cacheTTL,
			func(ctx context.Context) (*UserDetail, error) {
				return f.loadUserDetail(ctx, id)
			})
	}
	return f.loadUserDetail(ctx, id)
}

func (f *Facade) loadUserDetail(ctx context.Context, id int64) (*UserDetail, error) {
	uwr, err := f.UserWithRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		UserWithRoles: *uwr,
		Metadata: map[string]any{
			"account_age_days": int(time.Since(uwr.CreatedAt).Hours() / 24),
			"role_count":       len(uwr.Roles),
			"last_updated":     uwr.UpdatedAt,
		},
	}, nil
}

// InvalidateUser implements assign.Invalidator: every engine write drops the
// cached views touching the user.
func (f *Facade) InvalidateUser(ctx context.Context, userID int64) {
	if f.cache == nil {
		return
	}
	f.cache.Del(ctx, keyAllUsersWithRoles, userDetailKey(userID))
}

func userDetailKey(id int64) string { return fmt.Sprintf("user:%d:detail", id) }

func grants(held []store.HeldRole) []RoleGrant {
	out := make([]RoleGrant, 0, len(held))
	for _, h := range held {
		out = append(out, RoleGrant{
			RoleID:     h.Role.ID,
			Name:       h.Role.Name,
			AssignedAt: h.AssignedAt,
			AssignedBy: h.AssignedBy,
		})
	}
	return out
}
