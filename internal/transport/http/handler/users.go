package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"user-directory-service/internal/query"
	"user-directory-service/internal/transport/http/middleware"
	resp "user-directory-service/internal/transport/http/response"
	"user-directory-service/internal/users"
)

type UserHandler struct {
	users  *users.Service
	facade *query.Facade
}

func NewUserHandler(svc *users.Service, f *query.Facade) *UserHandler {
	return &UserHandler{users: svc, facade: f}
}

// List returns active users, id ascending.
func (h *UserHandler) List(c *gin.Context) {
	out, err := h.facade.Users(c.Request.Context())
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, out)
}

func (h *UserHandler) Create(c *gin.Context) {
	var in users.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Error(c, resp.CodeBadRequest, err.Error())
		return
	}
	u, err := h.users.Create(c.Request.Context(), in, middleware.CallerID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Created(c, u)
}

// Detail serves GET /users/:id. The pseudo-id "with-roles" selects the
// batched all-users view, which gin cannot register as a static sibling of
// the :id route.
func (h *UserHandler) Detail(c *gin.Context) {
	if c.Param("id") == "with-roles" {
		out, err := h.facade.AllUsersWithRoles(c.Request.Context())
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, out)
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.facade.UserDetail(c.Request.Context(), id)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, out)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in users.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Error(c, resp.CodeBadRequest, err.Error())
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, in, middleware.CallerID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, u)
}

// Delete deactivates; user rows are never physically removed.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), id, middleware.CallerID(c)); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.NoContent(c)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		resp.Error(c, resp.CodeBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
