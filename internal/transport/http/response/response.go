package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-directory-service/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK writes a 200 envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, New(CodeOK, CodeMsgMap[CodeOK], data))
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, New(CodeOK, CodeMsgMap[CodeOK], data))
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope at the matching HTTP status.
func Error(c *gin.Context, code int, customMsg string) {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	c.JSON(code, New(code, msg, struct{}{}))
}

// Abort is Error plus request abortion, for middleware.
func Abort(c *gin.Context, code int, customMsg string) {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	c.AbortWithStatusJSON(code, New(code, msg, struct{}{}))
}

// Fail maps a domain error onto the taxonomy: validation 400, not found 404,
// conflict 409, everything else (including storage unavailability) 500. The
// error message names the id or field involved.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(c, CodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(c, CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		Error(c, CodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		Error(c, CodeUnauthorized, err.Error())
	default:
		Error(c, CodeServerError, err.Error())
	}
}
