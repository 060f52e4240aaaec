package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-directory-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func mustCreateUser(t *testing.T, s *Store, username, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		Status:       domain.StatusActive,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustCreateRole(t *testing.T, s *Store, name string) *domain.Role {
	t.Helper()
	r := &domain.Role{Name: name}
	require.NoError(t, s.DB().Create(r).Error)
	return r
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "alice", "alice@example.com")

	err := s.CreateUser(context.Background(), &domain.User{
		Username: "alice", Email: "other@example.com", PasswordHash: "x", Status: domain.StatusActive,
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "username")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "alice", "alice@example.com")

	err := s.CreateUser(context.Background(), &domain.User{
		Username: "bob", Email: "alice@example.com", PasswordHash: "x", Status: domain.StatusActive,
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "email")
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(context.Background(), 12345)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), "12345")
}

func TestGetUserByUsernameCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "Alice", "alice@example.com")

	_, err := s.GetUserByUsername(context.Background(), "alice")
	assert.True(t, domain.IsNotFound(err))

	u, err := s.GetUserByUsername(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
}

func TestListActiveUsersExcludesInactive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreateUser(t, s, "alice", "alice@example.com")
	b := mustCreateUser(t, s, "bob", "bob@example.com")

	b.Status = domain.StatusInactive
	require.NoError(t, s.SaveUser(ctx, b))

	users, err := s.ListActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, a.ID, users[0].ID)
}

func TestCreateUserRoleDuplicatePair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "alice", "alice@example.com")
	r := mustCreateRole(t, s, "Viewer")

	require.NoError(t, s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: r.ID, AssignedBy: u.ID}))

	err := s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: r.ID, AssignedBy: u.ID})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestDeleteUserRoleNotAssigned(t *testing.T) {
	s := newTestStore(t)
	u := mustCreateUser(t, s, "alice", "alice@example.com")
	r := mustCreateRole(t, s, "Viewer")

	err := s.DeleteUserRole(context.Background(), u.ID, r.ID)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestListHeldRolesOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "alice", "alice@example.com")
	viewer := mustCreateRole(t, s, "Viewer")
	admin := mustCreateRole(t, s, "Administrator")

	require.NoError(t, s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: viewer.ID, AssignedBy: u.ID}))
	require.NoError(t, s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: admin.ID, AssignedBy: u.ID}))

	held, err := s.ListHeldRoles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, "Administrator", held[0].Role.Name)
	assert.Equal(t, "Viewer", held[1].Role.Name)
	assert.Equal(t, u.ID, held[0].AssignedBy)
	assert.False(t, held[0].AssignedAt.IsZero())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Store) error {
		if err := tx.CreateUser(ctx, &domain.User{
			Username: "ghost", Email: "ghost@example.com", PasswordHash: "x", Status: domain.StatusActive,
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = s.GetUserByUsername(ctx, "ghost")
	assert.True(t, domain.IsNotFound(err))
}
