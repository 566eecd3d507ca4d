package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PagesHandler отдаёт главную страницу и кабинеты по ролям.
type PagesHandler struct {
	opts Options
}

// NewPagesHandler создаёт хэндлер страниц.
func NewPagesHandler(opts Options) *PagesHandler {
	return &PagesHandler{opts: opts}
}

// Home обрабатывает GET /.
func (h *PagesHandler) Home(c *gin.Context) {
	h.opts.render(c, http.StatusOK, "home.html", gin.H{
		"Title": h.opts.AppName,
	})
}

// TeacherDashboard обрабатывает GET /teacher/dashboard.
func (h *PagesHandler) TeacherDashboard(c *gin.Context) {
	h.opts.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Кабинет преподавателя",
		"RoleTitle": "преподаватель",
	})
}

// StudentDashboard обрабатывает GET /student/dashboard.
func (h *PagesHandler) StudentDashboard(c *gin.Context) {
	h.opts.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Кабинет студента",
		"RoleTitle": "студент",
	})
}
