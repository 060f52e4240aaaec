package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"user-directory-service/internal/audit"
	resp "user-directory-service/internal/transport/http/response"
)

type AuditHandler struct {
	rec *audit.Recorder
}

func NewAuditHandler(rec *audit.Recorder) *AuditHandler {
	return &AuditHandler{rec: rec}
}

// List serves the audit feed newest-first. ?before= paginates by log_id.
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)
	entries, err := h.rec.List(c.Request.Context(), limit, before)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, entries)
}
