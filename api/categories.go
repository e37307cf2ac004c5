package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"projectboard/domain"
	"projectboard/metrics"
	"projectboard/session"
)

type categorySummary struct {
	domain.Category
	TemplateCount int `json:"templateCount"`
}

type categoryRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

type subcategoryRequest struct {
	Name string `json:"name"`
}

type renameSubcategoryRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type templateRequest struct {
	Subcategory string `json:"subcategory"`
	Task        string `json:"task"`
}

func getCategories(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		categories := s.Taxonomy.Categories()
		out := make([]categorySummary, len(categories))
		for i, cat := range categories {
			out[i] = categorySummary{Category: cat, TemplateCount: metrics.TemplateCount(cat)}
		}
		return c.JSON(http.StatusOK, out)
	})
}

func getCategoryTotals(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		return c.JSON(http.StatusOK, metrics.TaxonomyTotals(s.Taxonomy.Categories()))
	})
}

func postCategory(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var req categoryRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		id, err := s.Taxonomy.CreateCategory(c.Request().Context(), req.Name, req.Color, req.Description)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, idResponse{ID: id})
	})
}

func patchCategory(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var patch domain.CategoryPatch
		if err := decodeBody(c, &patch); err != nil {
			return writeError(c, err)
		}
		if err := s.Taxonomy.UpdateCategory(c.Request().Context(), c.Param("id"), patch); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func deleteCategory(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		if err := s.Taxonomy.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func postSubcategory(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var req subcategoryRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		if err := s.Taxonomy.CreateSubcategory(c.Request().Context(), c.Param("id"), req.Name); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusCreated)
	})
}

func patchSubcategory(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var req renameSubcategoryRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		if err := s.Taxonomy.UpdateSubcategory(c.Request().Context(), c.Param("id"), req.OldName, req.NewName); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

// deleteSubcategory takes the subcategory name from ?name= since names may
// contain slashes.
func deleteSubcategory(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		if err := s.Taxonomy.DeleteSubcategory(c.Request().Context(), c.Param("id"), c.QueryParam("name")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func postTemplate(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		var req templateRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		if err := s.Taxonomy.CreateTaskTemplate(c.Request().Context(), c.Param("id"), req.Subcategory, req.Task); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusCreated)
	})
}

// deleteTemplate removes ?index= of ?subcategory=.
func deleteTemplate(sessions *session.Manager) echo.HandlerFunc {
	return withSession(sessions, func(c echo.Context, s *session.Session) error {
		index, err := strconv.Atoi(c.QueryParam("index"))
		if err != nil {
			return writeError(c, errBadBody)
		}
		if err := s.Taxonomy.DeleteTaskTemplate(c.Request().Context(), c.Param("id"), c.QueryParam("subcategory"), index); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}
