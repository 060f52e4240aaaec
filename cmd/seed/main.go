// Seeds reference roles, permissions and their associations, plus a
// bootstrap administrator account. Idempotent: existing rows are left alone.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-directory-service/internal/audit"
	"user-directory-service/internal/core/config"
	"user-directory-service/internal/core/database"
	"user-directory-service/internal/core/logger"
	"user-directory-service/internal/domain"
	"user-directory-service/internal/store"
	"user-directory-service/internal/users"
)

var roles = []domain.Role{
	{Name: "Administrator", Description: "Full access to users, roles and the audit trail"},
	{Name: "Manager", Description: "Manages day-to-day user accounts"},
	{Name: "Regular User", Description: "Default role for new accounts"},
	{Name: "Viewer", Description: "Read-only access"},
}

var permissions = []domain.Permission{
	{Name: "users.read", ResourceType: "user", Description: "View user accounts"},
	{Name: "users.write", ResourceType: "user", Description: "Create and update user accounts"},
	{Name: "users.deactivate", ResourceType: "user", Description: "Deactivate user accounts"},
	{Name: "roles.assign", ResourceType: "role", Description: "Grant and revoke roles"},
	{Name: "audit.read", ResourceType: "audit", Description: "Read the audit trail"},
	{Name: "profile.read", ResourceType: "profile", Description: "View own profile"},
}

// role name -> permission names
var rolePermissions = map[string][]string{
	"Administrator": {"users.read", "users.write", "users.deactivate", "roles.assign", "audit.read", "profile.read"},
	"Manager":       {"users.read", "users.write", "profile.read"},
	"Regular User":  {"profile.read"},
	"Viewer":        {"users.read", "profile.read"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}

	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		log.Fatal("automigrate failed", zap.Error(err))
	}
	if err := seedReferenceData(db); err != nil {
		log.Fatal("seed reference data", zap.Error(err))
	}
	log.Info("reference data seeded",
		zap.Int("roles", len(roles)),
		zap.Int("permissions", len(permissions)),
	)

	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		if err := seedAdmin(st, username, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
			log.Fatal("seed admin", zap.Error(err))
		}
		log.Info("bootstrap administrator ready", zap.String("username", username))
	}
}

func seedReferenceData(db *gorm.DB) error {
	onNameConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}
	if err := db.Clauses(onNameConflict).Create(&roles).Error; err != nil {
		return err
	}
	for i := range permissions {
		err := db.Where(domain.Permission{Name: permissions[i].Name}).
			FirstOrCreate(&permissions[i]).Error
		if err != nil {
			return err
		}
	}

	roleID := map[string]int64{}
	var dbRoles []domain.Role
	if err := db.Find(&dbRoles).Error; err != nil {
		return err
	}
	for _, r := range dbRoles {
		roleID[r.Name] = r.ID
	}
	permID := map[string]int64{}
	var dbPerms []domain.Permission
	if err := db.Find(&dbPerms).Error; err != nil {
		return err
	}
	for _, p := range dbPerms {
		permID[p.Name] = p.ID
	}

	for roleName, permNames := range rolePermissions {
		for _, pn := range permNames {
			rp := domain.RolePermission{RoleID: roleID[roleName], PermissionID: permID[pn]}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rp).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedAdmin(st *store.Store, username, email, password string) error {
	ctx := context.Background()
	if _, err := st.GetUserByUsername(ctx, username); err == nil {
		return nil // already bootstrapped
	}
	admin, err := st.GetRoleByName(ctx, "Administrator")
	if err != nil {
		return err
	}
	svc := users.NewService(st, audit.NewRecorder(st), nil)
	_, err = svc.Create(ctx, users.CreateInput{
		Username: username,
		Email:    email,
		Password: password,
		RoleIDs:  []int64{admin.ID},
	}, 0)
	return err
}
