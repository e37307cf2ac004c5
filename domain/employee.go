package domain

import (
	"fmt"
	"slices"
	"time"
)

// Employee is a person that can be assigned to projects and tasks.
type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	Department string    `json:"department,omitempty"`
	Skills     []string  `json:"skills"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e Employee) Key() string { return e.ID }

func (e Employee) WithID(id string) Employee {
	e.ID = id
	return e
}

func (e Employee) Clone() Employee {
	e.Skills = slices.Clone(e.Skills)
	return e
}

// Member returns the reference stored in a project team.
func (e Employee) Member() Member {
	return Member{ID: e.ID, Name: e.Name, Email: e.Email}
}

// EmployeeDraft carries caller supplied fields for a new employee.
type EmployeeDraft struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Role       Role     `json:"role"`
	Department string   `json:"department,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

// NewEmployee builds an employee record. Role may be blank; a non-blank role
// must be one of Roles.
func NewEmployee(d EmployeeDraft, by User, now time.Time) (Employee, error) {
	if d.Role != "" && !d.Role.Valid() {
		return Employee{}, fmt.Errorf("%w: %q", ErrInvalidRole, d.Role)
	}
	skills := slices.Clone(d.Skills)
	if skills == nil {
		skills = []string{}
	}
	return Employee{
		Name:       d.Name,
		Email:      d.Email,
		Phone:      d.Phone,
		Role:       d.Role,
		Department: d.Department,
		Skills:     skills,
		CreatedBy:  by.UID,
		CreatedAt:  now.UTC(),
	}, nil
}

// EmployeePatch carries partial employee updates. A non-nil Skills replaces
// the whole list.
type EmployeePatch struct {
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Role       *Role    `json:"role,omitempty"`
	Department *string  `json:"department,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

func (p EmployeePatch) Validate() error {
	if p.Role != nil && *p.Role != "" && !p.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, *p.Role)
	}
	return nil
}

func (p EmployeePatch) Apply(v Employee) Employee {
	v = v.Clone()
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Email != nil {
		v.Email = *p.Email
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
	}
	if p.Role != nil {
		v.Role = *p.Role
	}
	if p.Department != nil {
		v.Department = *p.Department
	}
	if p.Skills != nil {
		v.Skills = slices.Clone(p.Skills)
	}
	return v
}
