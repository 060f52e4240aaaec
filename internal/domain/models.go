package domain

import "time"

// UserStatus is the lifecycle state of a user account. Accounts are never
// physically deleted; deactivation flips the status and keeps every row.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

// Valid reports whether s is one of the two known states.
func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	Status       UserStatus `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Role is static reference data; the engine assigns and revokes roles but
// does not create or destroy them.
type Role struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:64;not null" json:"name"`
	ResourceType string `gorm:"size:64;not null" json:"resource_type"`
	Description  string `gorm:"size:255" json:"description,omitempty"`
}

func (Permission) TableName() string { return "permissions" }

// RolePermission links a role to one of its permissions.
type RolePermission struct {
	RoleID       int64 `gorm:"primaryKey" json:"role_id"`
	PermissionID int64 `gorm:"primaryKey" json:"permission_id"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// UserRole is a role grant with provenance. The (user_id, role_id) pair is
// unique: a user cannot hold the same role twice.
type UserRole struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"uniqueIndex:idx_user_roles_pair;not null" json:"user_id"`
	RoleID     int64     `gorm:"uniqueIndex:idx_user_roles_pair;not null" json:"role_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
	AssignedBy int64     `gorm:"not null" json:"assigned_by"`
}

func (UserRole) TableName() string { return "user_roles" }

// Audit operations as recorded in the log.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// AuditEntry is an append-only record of a mutation. LogID is allocated by
// the storage auto-increment key, so it is strictly increasing and never
// reused. ActingUsername is denormalized at write time so the trail stays
// readable after the actor is renamed or deactivated.
type AuditEntry struct {
	LogID          int64     `gorm:"primaryKey;autoIncrement;column:log_id" json:"log_id"`
	Table          string    `gorm:"column:table_name;size:64;not null" json:"table_name"`
	Operation      string    `gorm:"size:16;not null" json:"operation"`
	AffectedUserID int64     `gorm:"not null;index" json:"affected_user_id"`
	ActingUsername string    `gorm:"size:64;not null" json:"acting_username"`
	ChangedAt      time.Time `gorm:"autoCreateTime" json:"changed_at"`
}

func (AuditEntry) TableName() string { return "audit_log" }
