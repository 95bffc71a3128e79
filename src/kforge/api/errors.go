package api

import (
	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/gin-gonic/gin"
)

// respondError writes err as a structured error response with the status
// its code maps to. Unstructured errors become 500s and are logged.
func respondError(c *gin.Context, err error) {
	status := errors.GetHTTPStatus(err)
	if status >= 500 {
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, errors.NewResponse(err))
}

func badRequest(c *gin.Context, err error) {
	respondError(c, errors.ErrInvalidJSON.WithMessage("Invalid request body: "+err.Error()))
}
