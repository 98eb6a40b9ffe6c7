package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleError writes an error to the gin response in the canonical envelope.
// Unknown error types are masked as 500 to avoid leaking internals.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !As(err, &appErr) {
		appErr = InternalError(err)
	}

	status := appErr.HTTPCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.AbortWithStatusJSON(status, gin.H{"error": appErr})
}
