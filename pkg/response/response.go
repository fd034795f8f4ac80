// Package response renders handler results. Bodies are plain JSON objects;
// failures carry an "error" string and, for server faults, "details".
package response

import (
	"net/http"

	"LifeLine/pkg/errors"
	"LifeLine/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serverError = "Server error"

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Fail aborts with {"error": msg}.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Error maps err to a status through its kind. Client errors show their
// message; anything else becomes a 500 with the error text as details.
func Error(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		Fail(c, status, errors.GetMessage(err))
		return
	}
	logger.Error("request failed",
		zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.AbortWithStatusJSON(status, gin.H{"error": serverError, "details": err.Error()})
}
