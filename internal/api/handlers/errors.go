package handlers

import (
	"github.com/gin-gonic/gin"

	"dayahead-sim/internal/api/models"
)

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}
