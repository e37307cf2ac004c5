package storage

import (
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"projectboard/domain"
)

type (
	ProjectCollection  = LiveCollection[domain.Project, domain.ProjectPatch]
	TaskCollection     = LiveCollection[domain.Task, domain.TaskPatch]
	EmployeeCollection = Collection[domain.Employee, domain.EmployeePatch]
	CategoryCollection = Collection[domain.Category, domain.CategoryPatch]
)

// Backend bundles the four collections a session works against. Projects and
// tasks are live.
type Backend struct {
	Projects   ProjectCollection
	Tasks      TaskCollection
	Employees  EmployeeCollection
	Categories CategoryCollection
}

// NewMemoryBackend returns a backend held entirely in process memory.
func NewMemoryBackend() Backend {
	return Backend{
		Projects:   NewMemory[domain.Project, domain.ProjectPatch](),
		Tasks:      NewMemory[domain.Task, domain.TaskPatch](),
		Employees:  NewMemory[domain.Employee, domain.EmployeePatch](),
		Categories: NewMemory[domain.Category, domain.CategoryPatch](),
	}
}

// TableConfig names the tables of the table backend.
type TableConfig struct {
	ConnectionString string
	Partition        string
	ProjectsTable    string
	TasksTable       string
	EmployeesTable   string
	CategoriesTable  string
	CacheTTL         time.Duration
}

// NewTableBackend builds Azure table collections with a Redis listing cache
// and Redis pub/sub feeds for the live collections.
func NewTableBackend(cfg TableConfig, rc *redis.Client, logger *log.Logger) (Backend, error) {
	svc, err := NewTableService(cfg.ConnectionString)
	if err != nil {
		return Backend{}, err
	}
	projects := NewCache[domain.Project, domain.ProjectPatch](
		NewTable[domain.Project, domain.ProjectPatch](svc.NewClient(cfg.ProjectsTable), cfg.Partition, ProjectCodec{}),
		rc, cfg.ProjectsTable, cfg.CacheTTL)
	tasks := NewCache[domain.Task, domain.TaskPatch](
		NewTable[domain.Task, domain.TaskPatch](svc.NewClient(cfg.TasksTable), cfg.Partition, TaskCodec{}),
		rc, cfg.TasksTable, cfg.CacheTTL)
	employees := NewCache[domain.Employee, domain.EmployeePatch](
		NewTable[domain.Employee, domain.EmployeePatch](svc.NewClient(cfg.EmployeesTable), cfg.Partition, EmployeeCodec{}),
		rc, cfg.EmployeesTable, cfg.CacheTTL)
	categories := NewCache[domain.Category, domain.CategoryPatch](
		NewTable[domain.Category, domain.CategoryPatch](svc.NewClient(cfg.CategoriesTable), cfg.Partition, CategoryCodec{}),
		rc, cfg.CategoriesTable, cfg.CacheTTL)
	return Backend{
		Projects:   NewFeed[domain.Project, domain.ProjectPatch](projects, rc, "projects", logger),
		Tasks:      NewFeed[domain.Task, domain.TaskPatch](tasks, rc, "tasks", logger),
		Employees:  employees,
		Categories: categories,
	}, nil
}
