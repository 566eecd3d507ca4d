package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/studyhub-auth/internal/http/middleware"
	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/pkg/apperror"
	"github.com/ignatzorin/studyhub-auth/internal/service"
	"github.com/ignatzorin/studyhub-auth/internal/validation"
)

// AuthHandler предоставляет HTML формы регистрации, входа и подтверждения кода.
type AuthHandler struct {
	auth *service.AuthService
	opts Options
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService, opts Options) *AuthHandler {
	return &AuthHandler{auth: auth, opts: opts}
}

// redirectIfAuthenticated отправляет вошедшего пользователя на стартовую страницу роли.
func (h *AuthHandler) redirectIfAuthenticated(c *gin.Context) bool {
	account := currentAccount(c)
	if account == nil {
		return false
	}
	redirect(c, service.LandingPath(account.Role))
	return true
}

// SignupPage обрабатывает GET /signup.
func (h *AuthHandler) SignupPage(c *gin.Context) {
	if h.redirectIfAuthenticated(c) {
		return
	}
	h.opts.render(c, http.StatusOK, "signup.html", gin.H{
		"Title": "Регистрация",
		"Form":  validation.SignupForm{},
	})
}

// Signup обрабатывает POST /signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	if h.redirectIfAuthenticated(c) {
		return
	}

	var form validation.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderSignup(c, form, validation.FieldErrors{"form": "некорректные данные формы"})
		return
	}

	_, err := h.auth.Signup(c.Request.Context(), form)
	if err != nil {
		var fieldErrs validation.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.renderSignup(c, form, fieldErrs)
			return
		}
		_ = c.Error(err)
		return
	}

	h.opts.AddFlash(c, FlashSuccess, "Аккаунт создан. Войдите, чтобы продолжить.")
	redirect(c, "/login")
}

func (h *AuthHandler) renderSignup(c *gin.Context, form validation.SignupForm, errs validation.FieldErrors) {
	form.Password = ""
	form.PasswordConfirm = ""

	h.opts.AddFlash(c, FlashError, "Проверьте выделенные поля формы.")
	h.opts.render(c, http.StatusBadRequest, "signup.html", gin.H{
		"Title":  "Регистрация",
		"Form":   form,
		"Errors": errs,
	})
}

// LoginPage обрабатывает GET /login.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if h.redirectIfAuthenticated(c) {
		return
	}
	h.opts.render(c, http.StatusOK, "login.html", gin.H{
		"Title": "Вход",
	})
}

// loginForm поля формы входа.
type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Login обрабатывает POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.redirectIfAuthenticated(c) {
		return
	}

	var form loginForm
	_ = c.ShouldBind(&form)

	if strings.TrimSpace(form.Username) == "" || form.Password == "" {
		h.renderLoginError(c, form.Username)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidCredentials) {
			logger.Log.WithFields(logrus.Fields{
				"username": form.Username,
				"ip":       c.ClientIP(),
			}).Info("auth handler: неудачная попытка входа")
			h.renderLoginError(c, form.Username)
			return
		}
		_ = c.Error(err)
		return
	}

	h.opts.setCookie(c, middleware.PendingCookieName, result.Pending.Value, seconds(h.opts.PendingTTL))

	if result.DeliveryErr != nil {
		h.opts.AddFlash(c, FlashWarning, "Не удалось отправить код на email. Попробуйте войти ещё раз позже.")
	} else {
		h.opts.AddFlash(c, FlashInfo, "Код подтверждения отправлен на ваш email.")
	}
	redirect(c, "/verify-otp")
}

func (h *AuthHandler) renderLoginError(c *gin.Context, username string) {
	h.opts.AddFlash(c, FlashError, apperror.ErrInvalidCredentials.Message)
	h.opts.render(c, http.StatusUnauthorized, "login.html", gin.H{
		"Title":    "Вход",
		"Username": username,
	})
}

// VerifyPage обрабатывает GET /verify-otp.
func (h *AuthHandler) VerifyPage(c *gin.Context) {
	pending, _ := c.Cookie(middleware.PendingCookieName)

	account, err := h.auth.PendingAccount(c.Request.Context(), pending)
	if err != nil {
		h.abandonPending(c, err)
		return
	}

	h.opts.render(c, http.StatusOK, "verify_otp.html", gin.H{
		"Title": "Подтверждение входа",
		"Email": account.Email,
	})
}

// Verify обрабатывает POST /verify-otp.
func (h *AuthHandler) Verify(c *gin.Context) {
	pending, _ := c.Cookie(middleware.PendingCookieName)
	ctx := c.Request.Context()

	account, err := h.auth.PendingAccount(ctx, pending)
	if err != nil {
		h.abandonPending(c, err)
		return
	}

	code := strings.TrimSpace(c.PostForm("code"))
	if err := validation.ValidateOTPCode(code); err != nil {
		h.renderVerifyError(c, http.StatusBadRequest, account.Email, err.Error())
		return
	}

	result, err := h.auth.VerifyOTP(ctx, pending, code, service.SessionMeta{
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
	})
	if err != nil {
		switch apperror.CodeOf(err) {
		case apperror.ErrCodeCodeMismatch:
			h.renderVerifyError(c, http.StatusUnauthorized, account.Email, apperror.MessageOf(err))
		case apperror.ErrCodeCodeExpired, apperror.ErrCodeNoPendingSession:
			h.abandonPending(c, err)
		default:
			_ = c.Error(err)
		}
		return
	}

	h.opts.clearCookie(c, middleware.PendingCookieName)
	h.opts.setCookie(c, middleware.SessionCookieName, result.Session.Value, seconds(h.opts.SessionTTL))
	h.opts.AddFlash(c, FlashSuccess, "Вход выполнен.")
	redirect(c, result.Landing)
}

// abandonPending сбрасывает ожидание кода и возвращает на форму входа.
func (h *AuthHandler) abandonPending(c *gin.Context, err error) {
	if code := apperror.CodeOf(err); code != apperror.ErrCodeNoPendingSession && code != apperror.ErrCodeCodeExpired {
		_ = c.Error(err)
		return
	}

	h.opts.clearCookie(c, middleware.PendingCookieName)
	h.opts.AddFlash(c, FlashError, apperror.MessageOf(err))
	redirect(c, "/login")
}

func (h *AuthHandler) renderVerifyError(c *gin.Context, status int, email, message string) {
	h.opts.AddFlash(c, FlashError, message)
	h.opts.render(c, status, "verify_otp.html", gin.H{
		"Title": "Подтверждение входа",
		"Email": email,
	})
}

// Logout обрабатывает GET и POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	session, _ := c.Cookie(middleware.SessionCookieName)

	if err := h.auth.Logout(c.Request.Context(), session); err != nil {
		logger.Log.WithField("error", err.Error()).Warn("auth handler: не удалось удалить сессию")
	}

	h.opts.clearCookie(c, middleware.SessionCookieName)
	h.opts.clearCookie(c, middleware.PendingCookieName)
	h.opts.AddFlash(c, FlashInfo, "Вы вышли из аккаунта.")
	redirect(c, "/")
}
