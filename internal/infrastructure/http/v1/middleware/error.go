package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"inventorycore/internal/core/apperror"
	"inventorycore/internal/infrastructure/http/v1/dto"
	"inventorycore/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Success: false,
				Error: dto.ErrorBody{
					Name:       appErr.Name,
					Code:       appErr.Code,
					Message:    appErr.Message,
					StatusCode: appErr.HTTPStatus,
					Timestamp:  appErr.Timestamp,
					Details:    appErr.Details,
				},
			})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		c.JSON(500, dto.ErrorResponse{
			Success: false,
			Error: dto.ErrorBody{
				Name:       "InternalError",
				Code:       apperror.CodeInternal,
				Message:    "internal server error",
				StatusCode: 500,
				Timestamp:  time.Now().UTC(),
			},
		})
	}
}
