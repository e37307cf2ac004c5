package domain

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on-hold"
)

// Valid reports whether s is one of the known project states.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// Priority is shared by projects and tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Role is an employee's job function.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleDesigner  Role = "designer"
	RoleManager   Role = "manager"
	RoleAnalyst   Role = "analyst"
	RoleTester    Role = "tester"
	RoleDevOps    Role = "devops"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleDeveloper, RoleDesigner, RoleManager, RoleAnalyst, RoleTester, RoleDevOps}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}
