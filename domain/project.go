package domain

import (
	"fmt"
	"slices"
	"time"
)

// Member is an employee reference embedded in a project's team.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Photo string `json:"photo,omitempty"`
}

// Project groups tasks and a team.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Status         ProjectStatus `json:"status"`
	Priority       Priority      `json:"priority"`
	DueDate        *time.Time    `json:"dueDate,omitempty"`
	AssignedTo     []Member      `json:"assignedTo"`
	CreatedBy      string        `json:"createdBy"`
	CreatedByName  string        `json:"createdByName"`
	CreatedByEmail string        `json:"createdByEmail"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func (p Project) Key() string { return p.ID }

func (p Project) WithID(id string) Project {
	p.ID = id
	return p
}

func (p Project) Clone() Project {
	p.AssignedTo = slices.Clone(p.AssignedTo)
	if p.DueDate != nil {
		d := *p.DueDate
		p.DueDate = &d
	}
	return p
}

// HasMember reports whether the employee is part of the project team.
func (p Project) HasMember(employeeID string) bool {
	for _, m := range p.AssignedTo {
		if m.ID == employeeID {
			return true
		}
	}
	return false
}

// ProjectDraft carries caller supplied fields for a new project.
type ProjectDraft struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status,omitempty"`
	Priority    Priority      `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	AssignedTo  []Member      `json:"assignedTo,omitempty"`
}

// NewProject builds a project owned by the given user. Absent status and
// priority become planning and medium.
func NewProject(d ProjectDraft, by User, now time.Time) (Project, error) {
	if d.Status == "" {
		d.Status = ProjectPlanning
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if !d.Status.Valid() {
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if !d.Priority.Valid() {
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	p := Project{
		Name:           d.Name,
		Description:    d.Description,
		Status:         d.Status,
		Priority:       d.Priority,
		DueDate:        d.DueDate,
		AssignedTo:     slices.Clone(d.AssignedTo),
		CreatedBy:      by.UID,
		CreatedByName:  by.DisplayName,
		CreatedByEmail: by.Email,
		CreatedAt:      now.UTC(),
	}
	if p.AssignedTo == nil {
		p.AssignedTo = []Member{}
	}
	return p, nil
}

// ProjectPatch carries partial project updates. Nil fields are left as is.
type ProjectPatch struct {
	Name         *string        `json:"name,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Status       *ProjectStatus `json:"status,omitempty"`
	Priority     *Priority      `json:"priority,omitempty"`
	DueDate      *time.Time     `json:"dueDate,omitempty"`
	ClearDueDate bool           `json:"clearDueDate,omitempty"`
	AssignedTo   []Member       `json:"assignedTo,omitempty"`
}

func (p ProjectPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	return nil
}

func (p ProjectPatch) Apply(v Project) Project {
	v = v.Clone()
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
	if p.ClearDueDate {
		v.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		v.DueDate = &d
	}
	if p.AssignedTo != nil {
		v.AssignedTo = slices.Clone(p.AssignedTo)
	}
	return v
}
