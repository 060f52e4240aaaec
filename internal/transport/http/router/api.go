package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-directory-service/internal/core/auth"
	"user-directory-service/internal/transport/http/handler"
	mdw "user-directory-service/internal/transport/http/middleware"
)

// Deps bundles everything the API engine mounts.
type Deps struct {
	Log   *zap.Logger
	JWTer *auth.JWTer
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Roles *handler.RoleHandler
	Audit *handler.AuditHandler
}

// AdminRole gates every mutating endpoint. Reads are open to any
// authenticated caller; what the UI shows per role is the UI's concern.
const AdminRole = "Administrator"

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	// per-client bucket on login slows credential stuffing
	api.POST("/auth/login", mdw.RateLimitPerIP(5, 10), d.Auth.Login)

	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWTer))
	{
		authed.GET("/users", d.Users.List)
		authed.GET("/users/:id", d.Users.Detail) // also serves /users/with-roles
		authed.GET("/users/:id/roles", d.Roles.UserRoles)
		authed.GET("/users/:id/roles/assignable", d.Roles.Assignable)
		authed.GET("/users/:id/permissions", d.Roles.Permissions)
		authed.GET("/roles", d.Roles.ListRoles)
		authed.GET("/audit-log", d.Audit.List)
	}

	admin := authed.Group("")
	admin.Use(mdw.RequireRole(AdminRole))
	{
		admin.POST("/users", d.Users.Create)
		admin.PUT("/users/:id", d.Users.Update)
		admin.DELETE("/users/:id", d.Users.Delete)
		admin.POST("/users/:id/roles", d.Roles.Grant)
		admin.DELETE("/users/:id/roles/:roleId", d.Roles.Revoke)
	}

	return r
}
