package api

import (
	stderrors "errors"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/errors"
	"github.com/gin-gonic/gin"
)

// respondError writes the failure body with the status mapped from the error
// code. Errors without an AppError in their chain are not echoed to clients.
func respondError(c *gin.Context, err error) {
	message := "An internal error occurred"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}

	_ = c.Error(err)
	c.JSON(errors.HTTPStatus(err), gin.H{
		"error":     message,
		"code":      errors.CodeOf(err),
		"timestamp": time.Now(),
	})
}
