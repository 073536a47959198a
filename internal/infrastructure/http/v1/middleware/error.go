package middleware

import (
	"github.com/gin-gonic/gin"

	"comercia/internal/core/apperror"
	"comercia/internal/infrastructure/http/v1/dto"
	"comercia/pkg/logger"
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
			// Log internal cause if present
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Detail: appErr.Message,
				Code:   appErr.Code,
				Errors: appErr.Details,
			})
			return
		}

		// Unknown error - log and return generic message
		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		c.JSON(500, dto.ErrorResponse{
			Detail: "Internal server error",
			Code:   apperror.CodeInternal,
			Errors: map[string]any{"request_id": c.GetString("request_id")},
		})
	}
}
