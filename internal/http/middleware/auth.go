package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/models"
	"github.com/ignatzorin/studyhub-auth/internal/pkg/apperror"
	"github.com/ignatzorin/studyhub-auth/internal/service"
)

// Context ключи и имена cookie.
const (
	ContextAccountKey = "account"

	SessionCookieName = "studyhub_session"
	PendingCookieName = "studyhub_pending"
)

// SessionAuthenticator восстанавливает аккаунт по токену сессии.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (*models.Account, error)
}

// LoadSession читает cookie сессии и кладёт аккаунт в контекст.
// Запрос без сессии проходит дальше как анонимный.
func LoadSession(auth SessionAuthenticator, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		account, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if apperror.CodeOf(err) == apperror.ErrCodeUnauthorized {
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(SessionCookieName, "", -1, "/", "", secureCookie, true)
			} else {
				logger.Log.WithFields(logrus.Fields{
					"error": err.Error(),
					"path":  c.Request.URL.Path,
				}).Warn("middleware: не удалось восстановить сессию")
			}
			c.Next()
			return
		}

		c.Set(ContextAccountKey, account)
		c.Next()
	}
}

// CurrentAccount возвращает аутентифицированный аккаунт из контекста.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	raw, exists := c.Get(ContextAccountKey)
	if !exists {
		return nil, false
	}
	account, ok := raw.(*models.Account)
	return account, ok && account != nil
}

// RequireAuth пропускает только аутентифицированные запросы, остальных отправляет на вход.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentAccount(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole пропускает аккаунты с указанной ролью.
// Остальные перенаправляются на стартовую страницу своей роли.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if account.Role != role {
			c.Redirect(http.StatusFound, service.LandingPath(account.Role))
			c.Abort()
			return
		}
		c.Next()
	}
}
