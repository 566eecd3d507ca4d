package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/studyhub-auth/internal/http/middleware"
	"github.com/ignatzorin/studyhub-auth/internal/models"
)

// Options общие параметры HTML хэндлеров.
type Options struct {
	AppName      string
	CookieSecure bool
	SessionTTL   time.Duration
	PendingTTL   time.Duration
}

// currentAccount извлекает аккаунт из контекста.
func currentAccount(c *gin.Context) *models.Account {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		return nil
	}
	return account
}

// render добавляет к данным шаблона общие поля страницы.
func (o Options) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["AppName"] = o.AppName
	data["Account"] = currentAccount(c)
	data["Flashes"] = o.TakeFlashes(c)
	c.HTML(status, name, data)
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
