package query

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-directory-service/internal/domain"
	"user-directory-service/internal/store"
)

func newFacade(t *testing.T) (*Facade, *store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	s := store.New(db)
	require.NoError(t, s.AutoMigrate())
	return NewFacade(s, nil), s
}

func seedUser(t *testing.T, s *store.Store, username string, status domain.UserStatus) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Status: status}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedRole(t *testing.T, s *store.Store, name string) *domain.Role {
	t.Helper()
	r := &domain.Role{Name: name}
	require.NoError(t, s.DB().Create(r).Error)
	return r
}

func grant(t *testing.T, s *store.Store, userID, roleID, by int64) {
	t.Helper()
	require.NoError(t, s.CreateUserRole(context.Background(), &domain.UserRole{
		UserID: userID, RoleID: roleID, AssignedBy: by,
	}))
}

func TestAllUsersWithRolesJoinsAssignments(t *testing.T) {
	f, s := newFacade(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice", domain.StatusActive)
	bob := seedUser(t, s, "bob", domain.StatusActive)
	viewer := seedRole(t, s, "Viewer")
	manager := seedRole(t, s, "Manager")
	grant(t, s, alice.ID, viewer.ID, alice.ID)
	grant(t, s, alice.ID, manager.ID, alice.ID)
	grant(t, s, bob.ID, viewer.ID, alice.ID)

	out, err := f.AllUsersWithRoles(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byName := map[string]UserWithRoles{}
	for _, uwr := range out {
		byName[uwr.Username] = uwr
	}
	assert.Len(t, byName["alice"].Roles, 2)
	require.Len(t, byName["bob"].Roles, 1)
	assert.Equal(t, "Viewer", byName["bob"].Roles[0].Name)
	assert.Equal(t, alice.ID, byName["bob"].Roles[0].AssignedBy)
}

func TestAllUsersWithRolesExcludesInactive(t *testing.T) {
	f, s := newFacade(t)
	ctx := context.Background()

	seedUser(t, s, "alice", domain.StatusActive)
	seedUser(t, s, "ghost", domain.StatusInactive)

	out, err := f.AllUsersWithRoles(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "alice", out[0].Username)
}

func TestAllUsersWithRolesEmptyDirectory(t *testing.T) {
	f, _ := newFacade(t)
	out, err := f.AllUsersWithRoles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUserWithRolesOrderedByName(t *testing.T) {
	f, s := newFacade(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice", domain.StatusActive)
	viewer := seedRole(t, s, "Viewer")
	admin := seedRole(t, s, "Administrator")
	grant(t, s, alice.ID, viewer.ID, alice.ID)
	grant(t, s, alice.ID, admin.ID, alice.ID)

	uwr, err := f.UserWithRoles(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, uwr.Roles, 2)
	assert.Equal(t, "Administrator", uwr.Roles[0].Name)
	assert.Equal(t, "Viewer", uwr.Roles[1].Name)
}

func TestUserWithRolesUnknownUser(t *testing.T) {
	f, _ := newFacade(t)
	_, err := f.UserWithRoles(context.Background(), 9999)
	assert.True(t, domain.IsNotFound(err))
}

func TestUserDetailMetadata(t *testing.T) {
	f, s := newFacade(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice", domain.StatusActive)
	viewer := seedRole(t, s, "Viewer")
	grant(t, s, alice.ID, viewer.ID, alice.ID)

	d, err := f.UserDetail(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", d.Username)
	assert.Equal(t, 1, d.Metadata["role_count"])
	assert.Equal(t, 0, d.Metadata["account_age_days"])
	assert.Contains(t, d.Metadata, "last_updated")
}

func TestInvalidateUserNilCacheSafe(t *testing.T) {
	f, s := newFacade(t)
	alice := seedUser(t, s, "alice", domain.StatusActive)
	assert.NotPanics(t, func() {
		f.InvalidateUser(context.Background(), alice.ID)
	})
}
