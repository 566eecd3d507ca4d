package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки, записанные хэндлерами через c.Error.
// Внутренние ошибки маскируются, клиент видит страницу с безопасным сообщением.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()

		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		// Ответ уже отправлен.
		if c.Writer.Written() {
			return
		}

		statusCode := http.StatusInternalServerError
		message := apperror.ErrInternal.Message

		var appErr *apperror.AppError
		if errors.As(err.Err, &appErr) && appErr.Code != apperror.ErrCodeInternal {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		}

		c.HTML(statusCode, "error.html", gin.H{
			"Title":   "Ошибка",
			"Message": message,
		})
	}
}
