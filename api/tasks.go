package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"projectboard/domain"
	"projectboard/session"
)

// getTasks filters by any combination of projectId, status and employeeId.
func getTasks(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		projectID := c.QueryParam("projectId")
		employeeID := c.QueryParam("employeeId")
		status := domain.TaskStatus(c.QueryParam("status"))
		if status != "" && !status.Valid() {
			return writeError(c, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status))
		}

		var tasks []domain.Task
		switch {
		case projectID != "":
			tasks = s.Entities.TasksByProject(projectID)
		case employeeID != "":
			tasks = s.Entities.TasksByEmployee(employeeID)
		case status != "":
			tasks = s.Entities.TasksByStatus(status)
		default:
			tasks = s.Entities.Tasks()
		}
		out := make([]domain.Task, 0, len(tasks))
		for _, t := range tasks {
			if employeeID != "" && t.AssignedTo != employeeID {
				continue
			}
			if status != "" && t.Status != status {
				continue
			}
			out = append(out, t)
		}
		return c.JSON(http.StatusOK, out)
	})
}

func postTask(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var draft domain.TaskDraft
		if err := decodeBody(c, &draft); err != nil {
			return writeError(c, err)
		}
		if draft.ProjectName == "" {
			if p, ok := s.Entities.ProjectByID(draft.ProjectID); ok {
				draft.ProjectName = p.Name
			}
		}
		id, err := s.Entities.CreateTask(c.Request().Context(), draft)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, idResponse{ID: id})
	})
}

func patchTask(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return writeError(c, err)
		}
		if err := s.Entities.UpdateTask(c.Request().Context(), c.Param("id"), patch); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func deleteTask(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		if err := s.Entities.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}
