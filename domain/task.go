package domain

import "fmt"

// Task is a unit of work inside a project. ProjectName is a snapshot taken at
// creation and is not kept in sync with later project renames.
type Task struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Status        TaskStatus `json:"status"`
	Priority      Priority   `json:"priority"`
	ProjectID     string     `json:"projectId"`
	ProjectName   string     `json:"projectName,omitempty"`
	Category      string     `json:"category,omitempty"`
	Subcategory   string     `json:"subcategory,omitempty"`
	AssignedTo    string     `json:"assignedTo,omitempty"`
	CreatedBy     string     `json:"createdBy"`
	CreatedByName string     `json:"createdByName"`
}

func (t Task) Key() string { return t.ID }

func (t Task) WithID(id string) Task {
	t.ID = id
	return t
}

func (t Task) Clone() Task { return t }

// TaskDraft carries caller supplied fields for a new task.
type TaskDraft struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	ProjectID   string     `json:"projectId"`
	ProjectName string     `json:"projectName,omitempty"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
}

// NewTask builds a task created by the given user. Absent status and priority
// become pending and medium.
func NewTask(d TaskDraft, by User) (Task, error) {
	if d.Status == "" {
		d.Status = TaskPending
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if !d.Status.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if !d.Priority.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	return Task{
		Name:          d.Name,
		Description:   d.Description,
		Status:        d.Status,
		Priority:      d.Priority,
		ProjectID:     d.ProjectID,
		ProjectName:   d.ProjectName,
		Category:      d.Category,
		Subcategory:   d.Subcategory,
		AssignedTo:    d.AssignedTo,
		CreatedBy:     by.UID,
		CreatedByName: by.DisplayName,
	}, nil
}

// TaskPatch carries partial task updates. An empty AssignedTo unassigns.
type TaskPatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	AssignedTo  *string     `json:"assignedTo,omitempty"`
}

func (p TaskPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	return nil
}

func (p TaskPatch) Apply(v Task) Task {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.Priority != nil {
		v.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		v.AssignedTo = *p.AssignedTo
	}
	return v
}
