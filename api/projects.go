package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"projectboard/assembler"
	"projectboard/domain"
	"projectboard/metrics"
	"projectboard/session"
	"projectboard/store"
)

type projectSummary struct {
	domain.Project
	Progress int `json:"progress"`
}

type projectDetail struct {
	Project   domain.Project   `json:"project"`
	Progress  int              `json:"progress"`
	Breakdown []metrics.Bucket `json:"breakdown"`
	Tasks     []domain.Task    `json:"tasks"`
}

// templateRef points at one template of a selected category.
type templateRef struct {
	CategoryID  string `json:"categoryId"`
	Subcategory string `json:"subcategory"`
	Index       int    `json:"index"`
}

type createProjectRequest struct {
	Details    domain.ProjectDraft `json:"details"`
	Categories []string            `json:"categories"`
	Deselected []templateRef       `json:"deselected,omitempty"`
}

type partialSubmitResponse struct {
	assembler.Result
	Error string `json:"error"`
}

func getProjects(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		board := metrics.NewBoard(s.Entities.Tasks())
		projects := s.Entities.Projects()
		out := make([]projectSummary, len(projects))
		for i, p := range projects {
			out[i] = projectSummary{Project: p, Progress: board.Progress(p.ID)}
		}
		return c.JSON(http.StatusOK, out)
	})
}

func getProject(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		p, ok := s.Entities.ProjectByID(c.Param("id"))
		if !ok {
			return writeError(c, errNotFound)
		}
		tasks := s.Entities.TasksByProject(p.ID)
		return c.JSON(http.StatusOK, projectDetail{
			Project:   p,
			Progress:  metrics.Progress(tasks, p.ID),
			Breakdown: metrics.CategoryBreakdown(tasks, p.ID, metrics.DisplayCategories),
			Tasks:     tasks,
		})
	})
}

// postProject runs the creation assembler: every listed category is selected
// with all of its templates, then the deselected templates are unchecked.
func postProject(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var req createProjectRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		a := s.NewAssembler()
		a.SetDetails(req.Details)
		for _, id := range req.Categories {
			if err := a.ToggleCategory(id); err != nil {
				return writeError(c, err)
			}
		}
		for _, ref := range req.Deselected {
			if err := a.ToggleTask(ref.CategoryID, ref.Subcategory, ref.Index); err != nil {
				return writeError(c, err)
			}
		}
		res, err := a.Submit(c.Request().Context(), s.Entities)
		if err != nil {
			if res.ProjectID == "" {
				return writeError(c, err)
			}
			// The project exists; report what was created before the failure.
			c.Set(stageKey, "store")
			msg := err.Error()
			var opErr *store.OpError
			if errors.As(err, &opErr) {
				msg = opErr.Msg
			}
			return c.JSON(http.StatusInternalServerError, partialSubmitResponse{Result: res, Error: msg})
		}
		return c.JSON(http.StatusCreated, res)
	})
}

func patchProject(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var patch domain.ProjectPatch
		if err := decodeBody(c, &patch); err != nil {
			return writeError(c, err)
		}
		id := c.Param("id")
		if err := s.Entities.UpdateProject(c.Request().Context(), id, patch); err != nil {
			return writeError(c, err)
		}
		if p, ok := s.Entities.ProjectByID(id); ok {
			return c.JSON(http.StatusOK, p)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func deleteProject(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		if err := s.Entities.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}
