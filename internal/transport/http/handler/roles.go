package handler

import (
	"github.com/gin-gonic/gin"

	"user-directory-service/internal/assign"
	"user-directory-service/internal/store"
	"user-directory-service/internal/transport/http/middleware"
	resp "user-directory-service/internal/transport/http/response"
)

type RoleHandler struct {
	engine *assign.Engine
	store  *store.Store
}

func NewRoleHandler(e *assign.Engine, s *store.Store) *RoleHandler {
	return &RoleHandler{engine: e, store: s}
}

// ListRoles enumerates the reference roles, name ascending.
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.store.ListRoles(c.Request.Context())
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, roles)
}

// UserRoles returns the roles a user holds, with assignment provenance.
func (h *RoleHandler) UserRoles(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetUser(c.Request.Context(), id); err != nil {
		resp.Fail(c, err)
		return
	}
	held, err := h.store.ListHeldRoles(c.Request.Context(), id)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, held)
}

// Assignable returns the roles a user may still receive plus the
// all-assigned flag, so the UI can tell "everything granted" apart from "no
// roles exist".
func (h *RoleHandler) Assignable(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	roles, allAssigned, err := h.engine.AssignableRoles(c.Request.Context(), id)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, gin.H{"roles": roles, "all_assigned": allAssigned})
}

type grantIn struct {
	RoleID     int64 `json:"role_id" binding:"required"`
	AssignedBy int64 `json:"assigned_by"`
}

// Grant assigns a role. Duplicate pairs are a 409, deliberately not a
// silent no-op.
func (h *RoleHandler) Grant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in grantIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Error(c, resp.CodeBadRequest, err.Error())
		return
	}
	actor := in.AssignedBy
	if actor == 0 {
		actor = middleware.CallerID(c)
	}
	ur, err := h.engine.Grant(c.Request.Context(), id, in.RoleID, actor)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Created(c, ur)
}

func (h *RoleHandler) Revoke(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	roleID, ok := pathID(c, "roleId")
	if !ok {
		return
	}
	err := h.engine.Revoke(c.Request.Context(), id, roleID, middleware.CallerID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.NoContent(c)
}

// Permissions returns the effective permission set, name ascending.
func (h *RoleHandler) Permissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	perms, err := h.engine.EffectivePermissions(c.Request.Context(), id)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, perms)
}
