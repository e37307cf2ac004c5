package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"projectboard/domain"
	"projectboard/metrics"
	"projectboard/session"
)

func getEmployees(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		role := domain.Role(c.QueryParam("role"))
		if role != "" && role != "all" && !role.Valid() {
			return writeError(c, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role))
		}
		return c.JSON(http.StatusOK, s.Entities.SearchEmployees(c.QueryParam("q"), role))
	})
}

func getRoleCounts(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		return c.JSON(http.StatusOK, metrics.RoleCounts(s.Entities.Employees()))
	})
}

func postEmployee(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var draft domain.EmployeeDraft
		if err := decodeBody(c, &draft); err != nil {
			return writeError(c, err)
		}
		id, err := s.Entities.CreateEmployee(c.Request().Context(), draft)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, idResponse{ID: id})
	})
}

func patchEmployee(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var patch domain.EmployeePatch
		if err := decodeBody(c, &patch); err != nil {
			return writeError(c, err)
		}
		if err := s.Entities.UpdateEmployee(c.Request().Context(), c.Param("id"), patch); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func deleteEmployee(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		if err := s.Entities.DeleteEmployee(c.Request().Context(), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}
