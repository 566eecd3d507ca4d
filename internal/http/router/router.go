package router

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/studyhub-auth/internal/config"
	"github.com/ignatzorin/studyhub-auth/internal/http/handlers"
	"github.com/ignatzorin/studyhub-auth/internal/http/middleware"
	"github.com/ignatzorin/studyhub-auth/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates разбирает встроенные HTML шаблоны.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	pagesHandler *handlers.PagesHandler,
	healthHandler *handlers.HealthHandler,
	sessions middleware.SessionAuthenticator,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.SetHTMLTemplate(Templates())
	r.Use(middleware.ErrorHandler())

	r.GET("/health", healthHandler.Health)

	web := r.Group("/")
	web.Use(middleware.LoadSession(sessions, cfg.CookieSecure))
	{
		web.GET("/", pagesHandler.Home)

		web.GET("/signup", authHandler.SignupPage)
		web.POST("/signup", authHandler.Signup)

		web.GET("/login", authHandler.LoginPage)
		web.POST("/login", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), authHandler.Login)

		web.GET("/verify-otp", authHandler.VerifyPage)
		web.POST("/verify-otp", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), authHandler.Verify)

		web.GET("/logout", authHandler.Logout)
		web.POST("/logout", authHandler.Logout)
	}

	protected := web.Group("/")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("/student/dashboard", pagesHandler.StudentDashboard)
		protected.GET("/teacher/dashboard", middleware.RequireRole(models.RoleTeacher), pagesHandler.TeacherDashboard)
	}

	return r
}
