package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-directory-service/internal/assign"
	"user-directory-service/internal/audit"
	"user-directory-service/internal/core/auth"
	"user-directory-service/internal/domain"
	"user-directory-service/internal/query"
	"user-directory-service/internal/store"
	"user-directory-service/internal/transport/http/handler"
	"user-directory-service/internal/users"
)

type env struct {
	engine *gin.Engine
	store  *store.Store
	admin  *domain.User
	viewer *domain.User
	roles  map[string]*domain.Role
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	s := store.New(db)
	require.NoError(t, s.AutoMigrate())

	ctx := context.Background()
	roles := map[string]*domain.Role{}
	for _, name := range []string{AdminRole, "Viewer", "Manager"} {
		r := &domain.Role{Name: name}
		require.NoError(t, s.DB().Create(r).Error)
		roles[name] = r
	}

	rec := audit.NewRecorder(s)
	facade := query.NewFacade(s, nil)
	eng := assign.NewEngine(s, rec, facade)
	userSvc := users.NewService(s, rec, facade)

	admin, err := userSvc.Create(ctx, users.CreateInput{
		Username: "root", Email: "root@example.com", Password: "rootpw",
		RoleIDs: []int64{roles[AdminRole].ID},
	}, 0)
	require.NoError(t, err)
	viewer, err := userSvc.Create(ctx, users.CreateInput{
		Username: "viewer", Email: "viewer@example.com", Password: "viewpw",
		RoleIDs: []int64{roles["Viewer"].ID},
	}, admin.ID)
	require.NoError(t, err)

	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "user-directory", TTL: time.Hour}
	e := NewAPIEngine(Deps{
		Log:   zap.NewNop(),
		JWTer: jwter,
		Auth:  handler.NewAuthHandler(userSvc, s, jwter),
		Users: handler.NewUserHandler(userSvc, facade),
		Roles: handler.NewRoleHandler(eng, s),
		Audit: handler.NewAuditHandler(rec),
	})
	return &env{engine: e, store: s, admin: admin, viewer: viewer, roles: roles}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

func TestLoginIssuesTokenWithRoles(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "root", "password": "rootpw",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				Username string   `json:"username"`
				Roles    []string `json:"roles"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Data.Token)
	assert.Equal(t, "root", out.Data.User.Username)
	assert.Contains(t, out.Data.User.Roles, AdminRole)
}

func TestLoginBadPassword(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "root", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReadsRequireToken(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{
		"/api/v1/users",
		"/api/v1/roles",
		"/api/v1/audit-log",
		fmt.Sprintf("/api/v1/users/%d/permissions", e.viewer.ID),
	} {
		w := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestMutationsRequireAdminRole(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "viewer", "viewpw")

	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/roles", e.viewer.ID), tok,
		gin.H{"role_id": e.roles["Manager"].ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", e.viewer.ID), tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// reads stay open to any authenticated caller
	w = e.do(t, http.MethodGet, "/api/v1/users", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGrantAndDuplicateConflict(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "root", "rootpw")
	path := fmt.Sprintf("/api/v1/users/%d/roles", e.viewer.ID)

	w := e.do(t, http.MethodPost, path, tok, gin.H{"role_id": e.roles["Manager"].ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, path, tok, gin.H{"role_id": e.roles["Manager"].ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRevokeThenNotFound(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "root", "rootpw")
	path := fmt.Sprintf("/api/v1/users/%d/roles/%d", e.viewer.ID, e.roles["Viewer"].ID)

	w := e.do(t, http.MethodDelete, path, tok, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodDelete, path, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignableRolesEndpoint(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "root", "rootpw")

	w := e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/roles/assignable", e.viewer.ID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Data struct {
			Roles       []domain.Role `json:"roles"`
			AllAssigned bool          `json:"all_assigned"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.False(t, out.Data.AllAssigned)
	require.Len(t, out.Data.Roles, 2) // holds Viewer, so Administrator and Manager remain
	assert.Equal(t, AdminRole, out.Data.Roles[0].Name)
}

func TestUsersWithRolesView(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "root", "rootpw")

	w := e.do(t, http.MethodGet, "/api/v1/users/with-roles", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Data []query.UserWithRoles `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data, 2)
	for _, uwr := range out.Data {
		assert.NotEmpty(t, uwr.Roles, uwr.Username)
	}
}

func TestCreateUserValidationAndConflict(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "root", "rootpw")

	w := e.do(t, http.MethodPost, "/api/v1/users", tok, gin.H{
		"username": "", "email": "x@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/users", tok, gin.H{
		"username": "viewer", "email": "dup@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteDeactivatesAndAudits(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "root", "rootpw")

	w := e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", e.viewer.ID), tok, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// deactivated users disappear from the listing but the row survives
	w = e.do(t, http.MethodGet, "/api/v1/users", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "root", list.Data[0].Username)

	w = e.do(t, http.MethodGet, "/api/v1/audit-log?limit=5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed struct {
		Data []domain.AuditEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.NotEmpty(t, feed.Data)
	newest := feed.Data[0]
	assert.Equal(t, "users", newest.Table)
	assert.Equal(t, domain.OpDelete, newest.Operation)
	assert.Equal(t, e.viewer.ID, newest.AffectedUserID)
	assert.Equal(t, "root", newest.ActingUsername)
}

func TestHealthEndpointOpen(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
