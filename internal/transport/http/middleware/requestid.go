package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KeyRequestID is both the header and the gin context key for the request id;
// AccessLog reads it back from the context.
const KeyRequestID = "X-Request-ID"

// RequestID honors a caller-supplied id and mints a uuid otherwise, echoing
// it on the response so clients can correlate their calls with the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
