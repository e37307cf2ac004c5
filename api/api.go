// Package api exposes the current session's stores over HTTP.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"projectboard/session"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, sessions *session.Manager, logger *log.Logger) {
	e.JSONSerializer = sonicSerializer{}
	e.Use(RequestLogger(logger), GzipRequestMiddleware())

	e.GET("/healthz", healthz)
	e.POST("/api/session", postSession(sessions, logger))
	e.GET("/api/session", getSession(sessions))
	e.DELETE("/api/session", deleteSession(sessions))
	e.GET("/api/status", getStatus(sessions))

	e.GET("/api/projects", getProjects(sessions))
	e.POST("/api/projects", postProject(sessions))
	e.GET("/api/projects/:id", getProject(sessions))
	e.PATCH("/api/projects/:id", patchProject(sessions))
	e.DELETE("/api/projects/:id", deleteProject(sessions))
	e.GET("/api/projects/:id/stream", streamProjectTasks(sessions))

	e.GET("/api/tasks", getTasks(sessions))
	e.POST("/api/tasks", postTask(sessions))
	e.PATCH("/api/tasks/:id", patchTask(sessions))
	e.DELETE("/api/tasks/:id", deleteTask(sessions))

	e.GET("/api/employees", getEmployees(sessions))
	e.GET("/api/employees/roles", getRoleCounts(sessions))
	e.POST("/api/employees", postEmployee(sessions))
	e.PATCH("/api/employees/:id", patchEmployee(sessions))
	e.DELETE("/api/employees/:id", deleteEmployee(sessions))

	e.GET("/api/categories", getCategories(sessions))
	e.GET("/api/categories/totals", getCategoryTotals(sessions))
	e.POST("/api/categories", postCategory(sessions))
	e.PATCH("/api/categories/:id", patchCategory(sessions))
	e.DELETE("/api/categories/:id", deleteCategory(sessions))
	e.POST("/api/categories/:id/subcategories", postSubcategory(sessions))
	e.PATCH("/api/categories/:id/subcategories", patchSubcategory(sessions))
	e.DELETE("/api/categories/:id/subcategories", deleteSubcategory(sessions))
	e.POST("/api/categories/:id/templates", postTemplate(sessions))
	e.DELETE("/api/categories/:id/templates", deleteTemplate(sessions))
}

type statusResponse struct {
	Error   string `json:"error,omitempty"`
	Loading bool   `json:"loading"`
}

type idResponse struct {
	ID string `json:"id"`
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// withSession verifies the request's bearer token against the open session
// or answers 401.
func withSession(sessions *session.Manager, h func(echo.Context, *session.Session) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return authorize(c, sessions, c.Request().Header.Get(echo.HeaderAuthorization), h)
	}
}

// withStreamSession also accepts ?token= since EventSource cannot set
// headers.
func withStreamSession(sessions *session.Manager, h func(echo.Context, *session.Session) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			if tok := c.QueryParam("token"); tok != "" {
				header = "Bearer " + tok
			}
		}
		return authorize(c, sessions, header, h)
	}
}

func authorize(c echo.Context, sessions *session.Manager, header string, h func(echo.Context, *session.Session) error) error {
	s, err := sessions.Authorize(header)
	if err != nil {
		return writeError(c, err)
	}
	return h(c, s)
}

func postSession(sessions *session.Manager, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := sessions.Login(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			logger.WithField("route", "/api/session").Debugf("login rejected: %v", err)
			c.Set(stageKey, "auth")
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, s.User)
	}
}

func getSession(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		return c.JSON(http.StatusOK, s.User)
	})
}

func deleteSession(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, _ *session.Session) error {
		sessions.Logout()
		return c.NoContent(http.StatusNoContent)
	})
}

func getStatus(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		return c.JSON(http.StatusOK, statusResponse{Error: s.Status.Error(), Loading: s.Status.Loading()})
	})
}
