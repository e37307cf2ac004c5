// Package assembler builds a project and its initial tasks from templates
// picked out of the taxonomy, one step at a time.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"projectboard/domain"
)

// Step indexes the creation flow.
type Step int

const (
	StepDetails Step = iota
	StepSelection
	StepTeam
	StepReview
)

const UnknownCategory = "Unknown Category"

var (
	ErrUnknownCategory    = errors.New("unknown category")
	ErrNotSelected        = errors.New("category not selected")
	ErrUnknownSubcategory = errors.New("unknown subcategory")
	ErrTemplateIndex      = errors.New("template index out of range")
	ErrSubmitting         = errors.New("submission already in progress")
)

// ValidationError lists the fields that keep a step from completing.
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return fmt.Sprintf("step %d: %s", e.Step, strings.Join(msgs, "; "))
}

// Taxonomy is the read side of the taxonomy store.
type Taxonomy interface {
	Category(id string) (domain.Category, bool)
}

// Creator persists the assembled project and its tasks.
type Creator interface {
	CreateProject(ctx context.Context, draft domain.ProjectDraft) (string, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (string, error)
}

type Template struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type SubcategorySelection struct {
	Name      string     `json:"name"`
	Templates []Template `json:"templates"`
}

// Entry is one task the submission will create.
type Entry struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Task        string `json:"task"`
}

// Result reports what Submit created. TaskIDs holds the tasks created before
// a failure when Submit returns an error.
type Result struct {
	ProjectID string   `json:"projectId"`
	TaskIDs   []string `json:"taskIds"`
}

// Assembler holds the draft of a project being created.
type Assembler struct {
	taxonomy Taxonomy

	mu         sync.Mutex
	step       Step
	details    domain.ProjectDraft
	categories []string
	selections map[string][]SubcategorySelection
	submitting bool
}

func New(taxonomy Taxonomy) *Assembler {
	return &Assembler{
		taxonomy: taxonomy,
		details: domain.ProjectDraft{
			Status:   domain.ProjectPlanning,
			Priority: domain.PriorityMedium,
		},
		selections: make(map[string][]SubcategorySelection),
	}
}

func (a *Assembler) Step() Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.step
}

func (a *Assembler) Details() domain.ProjectDraft {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.details
}

// SetDetails replaces the project fields of the draft.
func (a *Assembler) SetDetails(d domain.ProjectDraft) {
	a.mu.Lock()
	a.details = d
	a.details.AssignedTo = slices.Clone(d.AssignedTo)
	a.mu.Unlock()
}

// SetTeam replaces the project team.
func (a *Assembler) SetTeam(members []domain.Member) {
	a.mu.Lock()
	a.details.AssignedTo = slices.Clone(members)
	a.mu.Unlock()
}

// SelectedCategories returns the selected category ids in selection order.
func (a *Assembler) SelectedCategories() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.categories)
}

// Selection returns the template choices of a selected category.
func (a *Assembler) Selection(categoryID string) []SubcategorySelection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneSelection(a.selections[categoryID])
}

// ToggleCategory selects a category with every template checked, or drops it
// with all of its choices.
func (a *Assembler) ToggleCategory(categoryID string) error {
	c, ok := a.taxonomy.Category(categoryID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := slices.Index(a.categories, categoryID); i >= 0 {
		a.categories = slices.Delete(a.categories, i, i+1)
		delete(a.selections, categoryID)
		return nil
	}
	subs := make([]SubcategorySelection, len(c.Subcategories))
	for i, sub := range c.Subcategories {
		subs[i] = SubcategorySelection{Name: sub.Name, Templates: make([]Template, len(sub.Tasks))}
		for j, task := range sub.Tasks {
			subs[i].Templates[j] = Template{Name: task, Selected: true}
		}
	}
	a.categories = append(a.categories, categoryID)
	a.selections[categoryID] = subs
	return nil
}

// ToggleTask flips one template of a selected category.
func (a *Assembler) ToggleTask(categoryID, subcategory string, index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	subs, ok := a.selections[categoryID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSelected, categoryID)
	}
	for i := range subs {
		if subs[i].Name != subcategory {
			continue
		}
		if index < 0 || index >= len(subs[i].Templates) {
			return fmt.Errorf("%w: %d", ErrTemplateIndex, index)
		}
		subs[i].Templates[index].Selected = !subs[i].Templates[index].Selected
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrUnknownSubcategory, categoryID, subcategory)
}

// Validate checks the fields required by step. It returns nil or a
// *ValidationError.
func (a *Assembler) Validate(step Step) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.validateLocked(step)
}

func (a *Assembler) validateLocked(step Step) error {
	fields := map[string]string{}
	switch step {
	case StepDetails:
		if strings.TrimSpace(a.details.Name) == "" {
			fields["name"] = "Project name is required"
		}
		if strings.TrimSpace(a.details.Description) == "" {
			fields["description"] = "Project description is required"
		}
	case StepSelection:
		if len(a.categories) == 0 {
			fields["categories"] = "Please select at least one category"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Step: step, Fields: fields}
	}
	return nil
}

// Next advances one step once the current step validates.
func (a *Assembler) Next() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.validateLocked(a.step); err != nil {
		return err
	}
	if a.step < StepReview {
		a.step++
	}
	return nil
}

func (a *Assembler) Back() {
	a.mu.Lock()
	if a.step > StepDetails {
		a.step--
	}
	a.mu.Unlock()
}

// Preview lists the checked templates with category names resolved from the
// current taxonomy, so renames made while the draft is open are reflected.
func (a *Assembler) Preview() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.previewLocked()
}

func (a *Assembler) previewLocked() []Entry {
	out := []Entry{}
	for _, id := range a.categories {
		name := UnknownCategory
		if c, ok := a.taxonomy.Category(id); ok {
			name = c.Name
		}
		for _, sub := range a.selections[id] {
			for _, tpl := range sub.Templates {
				if tpl.Selected {
					out = append(out, Entry{Category: name, Subcategory: sub.Name, Task: tpl.Name})
				}
			}
		}
	}
	return out
}

func (a *Assembler) Submitting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitting
}

// Submit validates the draft, creates the project and then one pending,
// medium priority task per checked template. Task creation stops at the
// first failure; nothing already created is rolled back.
func (a *Assembler) Submit(ctx context.Context, creator Creator) (Result, error) {
	a.mu.Lock()
	if a.submitting {
		a.mu.Unlock()
		return Result{}, ErrSubmitting
	}
	for _, step := range []Step{StepDetails, StepSelection} {
		if err := a.validateLocked(step); err != nil {
			a.mu.Unlock()
			return Result{}, err
		}
	}
	a.submitting = true
	details := a.details
	details.AssignedTo = slices.Clone(a.details.AssignedTo)
	entries := a.previewLocked()
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.submitting = false
		a.mu.Unlock()
	}()

	projectID, err := creator.CreateProject(ctx, details)
	if err != nil {
		return Result{}, err
	}
	res := Result{ProjectID: projectID, TaskIDs: make([]string, 0, len(entries))}
	for _, e := range entries {
		id, err := creator.CreateTask(ctx, domain.TaskDraft{
			Name:        e.Task,
			Status:      domain.TaskPending,
			Priority:    domain.PriorityMedium,
			ProjectID:   projectID,
			ProjectName: details.Name,
			Category:    e.Category,
			Subcategory: e.Subcategory,
		})
		if err != nil {
			return res, fmt.Errorf("create task %q: %w", e.Task, err)
		}
		res.TaskIDs = append(res.TaskIDs, id)
	}
	return res, nil
}

func cloneSelection(subs []SubcategorySelection) []SubcategorySelection {
	if subs == nil {
		return nil
	}
	out := make([]SubcategorySelection, len(subs))
	for i, sub := range subs {
		out[i] = SubcategorySelection{Name: sub.Name, Templates: slices.Clone(sub.Templates)}
	}
	return out
}
