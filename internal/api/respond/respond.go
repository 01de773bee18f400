package respond

import (
	"log/slog"
	"net/http"
	"strconv"

	"algotracker/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Error writes err as {"success": false, "message": ...}. Transient causes
// are logged and never sent to the client.
func Error(c *gin.Context, logger *slog.Logger, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindTransient && logger != nil {
		logger.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", ae.Error()),
		)
	}
	c.AbortWithStatusJSON(ae.Kind.Status(), gin.H{
		"success": false,
		"message": ae.Message,
	})
}

// BadRequest writes a validation failure with msg.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": msg,
	})
}

// OK writes a success body with message plus extra fields.
func OK(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}
