package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"projectboard/domain"
	"projectboard/storage"
)

const (
	projectsCollection  = "projects"
	tasksCollection     = "tasks"
	employeesCollection = "employees"
)

// EntityStore holds the project, task and employee snapshots of a session.
type EntityStore struct {
	projects  storage.ProjectCollection
	tasks     storage.TaskCollection
	employees storage.EmployeeCollection
	sync      *Syncer
	user      domain.User
	now       func() time.Time

	mu           sync.RWMutex
	projectItems []domain.Project
	taskItems    []domain.Task
	employeeList []domain.Employee
}

func NewEntityStore(backend storage.Backend, syncer *Syncer, user domain.User) *EntityStore {
	return &EntityStore{
		projects:  backend.Projects,
		tasks:     backend.Tasks,
		employees: backend.Employees,
		sync:      syncer,
		user:      user,
		now:       time.Now,
	}
}

// Projects returns the project snapshot. Elements are read-only.
func (s *EntityStore) Projects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.projectItems)
}

func (s *EntityStore) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.taskItems)
}

func (s *EntityStore) Employees() []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.employeeList)
}

func (s *EntityStore) setProjects(items []domain.Project) {
	if items == nil {
		items = []domain.Project{}
	}
	s.mu.Lock()
	s.projectItems = items
	s.mu.Unlock()
}

func (s *EntityStore) setTasks(items []domain.Task) {
	if items == nil {
		items = []domain.Task{}
	}
	s.mu.Lock()
	s.taskItems = items
	s.mu.Unlock()
}

func (s *EntityStore) setEmployees(items []domain.Employee) {
	if items == nil {
		items = []domain.Employee{}
	}
	s.mu.Lock()
	s.employeeList = items
	s.mu.Unlock()
}

// Load fetches all three collections. Every collection is attempted; the
// first failure is returned.
func (s *EntityStore) Load(ctx context.Context) error {
	var first error
	for _, load := range []func(context.Context) error{s.LoadProjects, s.LoadTasks, s.LoadEmployees} {
		if err := load(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *EntityStore) LoadProjects(ctx context.Context) error {
	return s.sync.Load(ctx, projectsCollection, func(ctx context.Context) error {
		items, err := s.projects.List(ctx)
		if err != nil {
			return err
		}
		s.setProjects(items)
		return nil
	})
}

func (s *EntityStore) LoadTasks(ctx context.Context) error {
	return s.sync.Load(ctx, tasksCollection, func(ctx context.Context) error {
		items, err := s.tasks.List(ctx)
		if err != nil {
			return err
		}
		s.setTasks(items)
		return nil
	})
}

func (s *EntityStore) LoadEmployees(ctx context.Context) error {
	return s.sync.Load(ctx, employeesCollection, func(ctx context.Context) error {
		items, err := s.employees.List(ctx)
		if err != nil {
			return err
		}
		s.setEmployees(items)
		return nil
	})
}

// Watch keeps the project and task snapshots current from the live
// collections. The returned func disposes both subscriptions.
func (s *EntityStore) Watch(ctx context.Context) (func(), error) {
	stopProjects, err := s.projects.Subscribe(ctx, nil, s.setProjects)
	if err != nil {
		return nil, err
	}
	stopTasks, err := s.tasks.Subscribe(ctx, nil, s.setTasks)
	if err != nil {
		stopProjects()
		return nil, err
	}
	return func() {
		stopTasks()
		stopProjects()
	}, nil
}

// WatchProjectTasks delivers the tasks of one project on every change until
// the returned func is called.
func (s *EntityStore) WatchProjectTasks(ctx context.Context, projectID string, fn func([]domain.Task)) (func(), error) {
	stop, err := s.tasks.Subscribe(ctx, func(t domain.Task) bool { return t.ProjectID == projectID }, fn)
	if err != nil {
		return nil, err
	}
	return func() { stop() }, nil
}

func (s *EntityStore) CreateProject(ctx context.Context, draft domain.ProjectDraft) (string, error) {
	const failure = "Failed to create project"
	p, err := domain.NewProject(draft, s.user, s.now())
	if err != nil {
		return "", s.sync.fail(KindCreate, projectsCollection, failure, err)
	}
	op := Op{Collection: projectsCollection, Entity: domain.EntityProject, Kind: KindCreate, Failure: failure, Data: p}
	return s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return s.projects.Create(ctx, p)
	}, s.LoadProjects)
}

func (s *EntityStore) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) error {
	const failure = "Failed to update project"
	if err := patch.Validate(); err != nil {
		return s.sync.fail(KindUpdate, projectsCollection, failure, err)
	}
	op := Op{Collection: projectsCollection, Entity: domain.EntityProject, Kind: KindUpdate, Failure: failure, Data: patch}
	_, err := s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, s.projects.Update(ctx, id, patch)
	}, s.LoadProjects)
	return err
}

// DeleteProject removes the project only; its tasks are left in place.
func (s *EntityStore) DeleteProject(ctx context.Context, id string) error {
	op := Op{Collection: projectsCollection, Entity: domain.EntityProject, Kind: KindDelete, Failure: "Failed to delete project"}
	_, err := s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, s.projects.Delete(ctx, id)
	}, s.LoadProjects)
	return err
}

func (s *EntityStore) CreateTask(ctx context.Context, draft domain.TaskDraft) (string, error) {
	const failure = "Failed to create task"
	t, err := domain.NewTask(draft, s.user)
	if err != nil {
		return "", s.sync.fail(KindCreate, tasksCollection, failure, err)
	}
	op := Op{Collection: tasksCollection, Entity: domain.EntityTask, Kind: KindCreate, Failure: failure, Data: t}
	return s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return s.tasks.Create(ctx, t)
	}, s.LoadTasks)
}

func (s *EntityStore) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	const failure = "Failed to update task"
	if err := patch.Validate(); err != nil {
		return s.sync.fail(KindUpdate, tasksCollection, failure, err)
	}
	op := Op{Collection: tasksCollection, Entity: domain.EntityTask, Kind: KindUpdate, Failure: failure, Data: patch}
	_, err := s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, s.tasks.Update(ctx, id, patch)
	}, s.LoadTasks)
	return err
}

func (s *EntityStore) DeleteTask(ctx context.Context, id string) error {
	op := Op{Collection: tasksCollection, Entity: domain.EntityTask, Kind: KindDelete, Failure: "Failed to delete task"}
	_, err := s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, s.tasks.Delete(ctx, id)
	}, s.LoadTasks)
	return err
}

func (s *EntityStore) CreateEmployee(ctx context.Context, draft domain.EmployeeDraft) (string, error) {
	const failure = "Failed to create employee"
	e, err := domain.NewEmployee(draft, s.user, s.now())
	if err != nil {
		return "", s.sync.fail(KindCreate, employeesCollection, failure, err)
	}
	op := Op{Collection: employeesCollection, Entity: domain.EntityEmployee, Kind: KindCreate, Failure: failure, Data: e}
	return s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return s.employees.Create(ctx, e)
	}, s.LoadEmployees)
}

func (s *EntityStore) UpdateEmployee(ctx context.Context, id string, patch domain.EmployeePatch) error {
	const failure = "Failed to update employee"
	if err := patch.Validate(); err != nil {
		return s.sync.fail(KindUpdate, employeesCollection, failure, err)
	}
	op := Op{Collection: employeesCollection, Entity: domain.EntityEmployee, Kind: KindUpdate, Failure: failure, Data: patch}
	_, err := s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, s.employees.Update(ctx, id, patch)
	}, s.LoadEmployees)
	return err
}

func (s *EntityStore) DeleteEmployee(ctx context.Context, id string) error {
	op := Op{Collection: employeesCollection, Entity: domain.EntityEmployee, Kind: KindDelete, Failure: "Failed to delete employee"}
	_, err := s.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, s.employees.Delete(ctx, id)
	}, s.LoadEmployees)
	return err
}

func (s *EntityStore) ProjectByID(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projectItems {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

func (s *EntityStore) EmployeeByID(id string) (domain.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employeeList {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

func (s *EntityStore) TasksByProject(projectID string) []domain.Task {
	return s.filterTasks(func(t domain.Task) bool { return t.ProjectID == projectID })
}

func (s *EntityStore) TasksByEmployee(employeeID string) []domain.Task {
	return s.filterTasks(func(t domain.Task) bool { return t.AssignedTo == employeeID })
}

func (s *EntityStore) TasksByStatus(status domain.TaskStatus) []domain.Task {
	return s.filterTasks(func(t domain.Task) bool { return t.Status == status })
}

// ProjectsByEmployee returns the projects whose team includes the employee.
func (s *EntityStore) ProjectsByEmployee(employeeID string) []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Project{}
	for _, p := range s.projectItems {
		if p.HasMember(employeeID) {
			out = append(out, p)
		}
	}
	return out
}

// SearchEmployees matches term case-insensitively against name, email and
// role. A role of "" or "all" matches any role.
func (s *EntityStore) SearchEmployees(term string, role domain.Role) []domain.Employee {
	term = strings.ToLower(strings.TrimSpace(term))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Employee{}
	for _, e := range s.employeeList {
		if role != "" && role != "all" && e.Role != role {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Name), term) &&
			!strings.Contains(strings.ToLower(e.Email), term) &&
			!strings.Contains(strings.ToLower(string(e.Role)), term) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *EntityStore) filterTasks(keep func(domain.Task) bool) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Task{}
	for _, t := range s.taskItems {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
