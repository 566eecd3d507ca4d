package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "studyhub_flash"
	flashContextKey = "flash.outgoing"
)

// Уровни flash сообщений, совпадают с CSS классами шаблонов.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// Flash одноразовое сообщение, показываемое на следующей странице.
type Flash struct {
	Level string `json:"l"`
	Text  string `json:"t"`
}

// AddFlash добавляет сообщение к исходящим и перезаписывает cookie.
func (o Options) AddFlash(c *gin.Context, level, text string) {
	pending := outgoingFlashes(c)
	pending = append(pending, Flash{Level: level, Text: text})
	c.Set(flashContextKey, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	o.setCookie(c, flashCookieName, base64.RawURLEncoding.EncodeToString(raw), 0)
}

// TakeFlashes возвращает накопленные сообщения и очищает cookie.
func (o Options) TakeFlashes(c *gin.Context) []Flash {
	var flashes []Flash

	if raw, err := c.Cookie(flashCookieName); err == nil && raw != "" {
		flashes = append(flashes, decodeFlashes(raw)...)
		o.clearCookie(c, flashCookieName)
	}

	if pending := outgoingFlashes(c); len(pending) > 0 {
		flashes = append(flashes, pending...)
		c.Set(flashContextKey, []Flash(nil))
		o.clearCookie(c, flashCookieName)
	}

	return flashes
}

func outgoingFlashes(c *gin.Context) []Flash {
	raw, exists := c.Get(flashContextKey)
	if !exists {
		return nil
	}
	flashes, _ := raw.([]Flash)
	return flashes
}

// decodeFlashes игнорирует повреждённую cookie.
func decodeFlashes(raw string) []Flash {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

func (o Options) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", o.CookieSecure, true)
}

func (o Options) clearCookie(c *gin.Context, name string) {
	o.setCookie(c, name, "", -1)
}
