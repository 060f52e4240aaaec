package handler

import (
	"github.com/gin-gonic/gin"

	"user-directory-service/internal/core/auth"
	"user-directory-service/internal/store"
	resp "user-directory-service/internal/transport/http/response"
	"user-directory-service/internal/users"
)

type AuthHandler struct {
	users *users.Service
	store *store.Store
	jwter *auth.JWTer
}

func NewAuthHandler(svc *users.Service, s *store.Store, j *auth.JWTer) *AuthHandler {
	return &AuthHandler{users: svc, store: s, jwter: j}
}

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the credential and issues a token carrying the user's role
// names at login time.
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Error(c, resp.CodeBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	held, err := h.store.ListHeldRoles(ctx, u.ID)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	roleNames := make([]string, 0, len(held))
	for _, hr := range held {
		roleNames = append(roleNames, hr.Role.Name)
	}
	tok, err := h.jwter.Issue(u.ID, roleNames)
	if err != nil {
		resp.Error(c, resp.CodeServerError, "issue token failed")
		return
	}
	resp.OK(c, gin.H{
		"token": tok,
		"user": gin.H{
			"id":       u.ID,
			"username": u.Username,
			"roles":    roleNames,
		},
	})
}
