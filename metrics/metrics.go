// Package metrics derives progress and rollups from store snapshots. Nothing
// here holds state beyond a Board's memo of a single snapshot.
package metrics

import (
	"math"
	"strings"
	"sync"

	"projectboard/domain"
)

// DisplayCategories are the buckets shown on a project's breakdown.
var DisplayCategories = []string{"Planning", "Design", "Development", "Testing", "Deployment"}

// Bucket is one row of a category breakdown.
type Bucket struct {
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

// Totals summarizes the taxonomy.
type Totals struct {
	Categories         int `json:"categories"`
	Subcategories      int `json:"subcategories"`
	Templates          int `json:"templates"`
	AveragePerCategory int `json:"averagePerCategory"`
}

// RoleCount is the number of employees holding a role.
type RoleCount struct {
	Role  domain.Role `json:"role"`
	Count int         `json:"count"`
}

// Progress returns the rounded completion percentage of the project's tasks,
// or 0 when it has none.
func Progress(tasks []domain.Task, projectID string) int {
	total, completed := 0, 0
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.Status == domain.TaskCompleted {
			completed++
		}
	}
	return percent(completed, total)
}

// CategoryBreakdown buckets the project's tasks by names. A task belongs to
// every bucket whose name occurs, ignoring case, in its category, so it can
// land in several buckets or in none.
func CategoryBreakdown(tasks []domain.Task, projectID string, names []string) []Bucket {
	out := make([]Bucket, len(names))
	for i, name := range names {
		out[i].Name = name
		needle := strings.ToLower(name)
		for _, t := range tasks {
			if t.ProjectID != projectID || !strings.Contains(strings.ToLower(t.Category), needle) {
				continue
			}
			out[i].Total++
			if t.Status == domain.TaskCompleted {
				out[i].Completed++
			}
		}
		if out[i].Total > 0 {
			out[i].Percent = float64(out[i].Completed) / float64(out[i].Total) * 100
		}
	}
	return out
}

// TemplateCount returns the number of templates across a category's
// subcategories.
func TemplateCount(c domain.Category) int {
	n := 0
	for _, sub := range c.Subcategories {
		n += len(sub.Tasks)
	}
	return n
}

func TaxonomyTotals(categories []domain.Category) Totals {
	out := Totals{Categories: len(categories)}
	for _, c := range categories {
		out.Subcategories += len(c.Subcategories)
		out.Templates += TemplateCount(c)
	}
	out.AveragePerCategory = int(math.Round(float64(out.Templates) / float64(max(len(categories), 1))))
	return out
}

// RoleCounts counts employees per known role, in display order. Employees
// without a known role are not counted.
func RoleCounts(employees []domain.Employee) []RoleCount {
	out := make([]RoleCount, len(domain.Roles))
	for i, r := range domain.Roles {
		out[i].Role = r
	}
	for _, e := range employees {
		for i, r := range domain.Roles {
			if e.Role == r {
				out[i].Count++
				break
			}
		}
	}
	return out
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// Board memoizes per-project progress over one task snapshot. Snapshots are
// replaced rather than patched, so a Board never goes stale; build a new one
// for the next snapshot.
type Board struct {
	tasks []domain.Task

	once     sync.Once
	progress map[string]int
}

func NewBoard(tasks []domain.Task) *Board {
	return &Board{tasks: tasks}
}

func (b *Board) Progress(projectID string) int {
	b.once.Do(func() {
		type counts struct{ total, completed int }
		byProject := make(map[string]*counts)
		for _, t := range b.tasks {
			c := byProject[t.ProjectID]
			if c == nil {
				c = &counts{}
				byProject[t.ProjectID] = c
			}
			c.total++
			if t.Status == domain.TaskCompleted {
				c.completed++
			}
		}
		b.progress = make(map[string]int, len(byProject))
		for id, c := range byProject {
			b.progress[id] = percent(c.completed, c.total)
		}
	})
	return b.progress[projectID]
}

func (b *Board) Breakdown(projectID string) []Bucket {
	return CategoryBreakdown(b.tasks, projectID, DisplayCategories)
}
