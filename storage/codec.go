package storage

import (
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"projectboard/domain"
)

// rowKeys addresses an entity when writing. Reads embed aztables.Entity.
type rowKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

// Nested lists are stored as JSON string properties since table entities are
// flat.
func encodeList(v any) (string, error) {
	return sonic.MarshalString(v)
}

func decodeList[T any](raw string) ([]T, error) {
	out := []T{}
	if raw == "" {
		return out, nil
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

type projectProps struct {
	Name           string `json:"Name"`
	Description    string `json:"Description"`
	Status         string `json:"Status"`
	Priority       string `json:"Priority"`
	DueDate        string `json:"DueDate"`
	AssignedTo     string `json:"AssignedTo"`
	CreatedBy      string `json:"CreatedBy"`
	CreatedByName  string `json:"CreatedByName"`
	CreatedByEmail string `json:"CreatedByEmail"`
	CreatedAt      string `json:"CreatedAt"`
}

type projectPatchProps struct {
	rowKeys
	Name        *string `json:"Name,omitempty"`
	Description *string `json:"Description,omitempty"`
	Status      *string `json:"Status,omitempty"`
	Priority    *string `json:"Priority,omitempty"`
	DueDate     *string `json:"DueDate,omitempty"`
	AssignedTo  *string `json:"AssignedTo,omitempty"`
}

// ProjectCodec maps projects to table entities.
type ProjectCodec struct{}

func (ProjectCodec) EncodeEntity(partition string, p domain.Project) ([]byte, error) {
	team, err := encodeList(p.AssignedTo)
	if err != nil {
		return nil, err
	}
	props := projectProps{
		Name:           p.Name,
		Description:    p.Description,
		Status:         string(p.Status),
		Priority:       string(p.Priority),
		AssignedTo:     team,
		CreatedBy:      p.CreatedBy,
		CreatedByName:  p.CreatedByName,
		CreatedByEmail: p.CreatedByEmail,
		CreatedAt:      formatTime(p.CreatedAt),
	}
	if p.DueDate != nil {
		props.DueDate = formatTime(*p.DueDate)
	}
	return json.Marshal(struct {
		rowKeys
		projectProps
	}{rowKeys{partition, p.ID}, props})
}

func (ProjectCodec) EncodePatch(partition, id string, p domain.ProjectPatch) ([]byte, error) {
	out := projectPatchProps{rowKeys: rowKeys{partition, id}, Name: p.Name, Description: p.Description}
	if p.Status != nil {
		s := string(*p.Status)
		out.Status = &s
	}
	if p.Priority != nil {
		s := string(*p.Priority)
		out.Priority = &s
	}
	if p.ClearDueDate {
		empty := ""
		out.DueDate = &empty
	} else if p.DueDate != nil {
		s := formatTime(*p.DueDate)
		out.DueDate = &s
	}
	if p.AssignedTo != nil {
		team, err := encodeList(p.AssignedTo)
		if err != nil {
			return nil, err
		}
		out.AssignedTo = &team
	}
	return json.Marshal(out)
}

func (ProjectCodec) DecodeEntity(data []byte) (domain.Project, error) {
	var ent struct {
		aztables.Entity
		projectProps
	}
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Project{}, err
	}
	team, err := decodeList[domain.Member](ent.AssignedTo)
	if err != nil {
		return domain.Project{}, err
	}
	created, err := parseTime(ent.CreatedAt)
	if err != nil {
		return domain.Project{}, err
	}
	p := domain.Project{
		ID:             ent.RowKey,
		Name:           ent.Name,
		Description:    ent.Description,
		Status:         domain.ProjectStatus(ent.Status),
		Priority:       domain.Priority(ent.Priority),
		AssignedTo:     team,
		CreatedBy:      ent.CreatedBy,
		CreatedByName:  ent.CreatedByName,
		CreatedByEmail: ent.CreatedByEmail,
		CreatedAt:      created,
	}
	if ent.DueDate != "" {
		due, err := parseTime(ent.DueDate)
		if err != nil {
			return domain.Project{}, err
		}
		p.DueDate = &due
	}
	return p, nil
}

type taskProps struct {
	Name          string `json:"Name"`
	Description   string `json:"Description"`
	Status        string `json:"Status"`
	Priority      string `json:"Priority"`
	ProjectID     string `json:"ProjectId"`
	ProjectName   string `json:"ProjectName"`
	Category      string `json:"Category"`
	Subcategory   string `json:"Subcategory"`
	AssignedTo    string `json:"AssignedTo"`
	CreatedBy     string `json:"CreatedBy"`
	CreatedByName string `json:"CreatedByName"`
}

type taskPatchProps struct {
	rowKeys
	Name        *string `json:"Name,omitempty"`
	Description *string `json:"Description,omitempty"`
	Status      *string `json:"Status,omitempty"`
	Priority    *string `json:"Priority,omitempty"`
	AssignedTo  *string `json:"AssignedTo,omitempty"`
}

// TaskCodec maps tasks to table entities.
type TaskCodec struct{}

func (TaskCodec) EncodeEntity(partition string, t domain.Task) ([]byte, error) {
	return json.Marshal(struct {
		rowKeys
		taskProps
	}{rowKeys{partition, t.ID}, taskProps{
		Name:          t.Name,
		Description:   t.Description,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		ProjectID:     t.ProjectID,
		ProjectName:   t.ProjectName,
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		AssignedTo:    t.AssignedTo,
		CreatedBy:     t.CreatedBy,
		CreatedByName: t.CreatedByName,
	}})
}

func (TaskCodec) EncodePatch(partition, id string, p domain.TaskPatch) ([]byte, error) {
	out := taskPatchProps{rowKeys: rowKeys{partition, id}, Name: p.Name, Description: p.Description, AssignedTo: p.AssignedTo}
	if p.Status != nil {
		s := string(*p.Status)
		out.Status = &s
	}
	if p.Priority != nil {
		s := string(*p.Priority)
		out.Priority = &s
	}
	return json.Marshal(out)
}

func (TaskCodec) DecodeEntity(data []byte) (domain.Task, error) {
	var ent struct {
		aztables.Entity
		taskProps
	}
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:            ent.RowKey,
		Name:          ent.Name,
		Description:   ent.Description,
		Status:        domain.TaskStatus(ent.Status),
		Priority:      domain.Priority(ent.Priority),
		ProjectID:     ent.ProjectID,
		ProjectName:   ent.ProjectName,
		Category:      ent.Category,
		Subcategory:   ent.Subcategory,
		AssignedTo:    ent.AssignedTo,
		CreatedBy:     ent.CreatedBy,
		CreatedByName: ent.CreatedByName,
	}, nil
}

type employeeProps struct {
	Name       string `json:"Name"`
	Email      string `json:"Email"`
	Phone      string `json:"Phone"`
	Role       string `json:"Role"`
	Department string `json:"Department"`
	Skills     string `json:"Skills"`
	CreatedBy  string `json:"CreatedBy"`
	CreatedAt  string `json:"CreatedAt"`
}

type employeePatchProps struct {
	rowKeys
	Name       *string `json:"Name,omitempty"`
	Email      *string `json:"Email,omitempty"`
	Phone      *string `json:"Phone,omitempty"`
	Role       *string `json:"Role,omitempty"`
	Department *string `json:"Department,omitempty"`
	Skills     *string `json:"Skills,omitempty"`
}

// EmployeeCodec maps employees to table entities.
type EmployeeCodec struct{}

func (EmployeeCodec) EncodeEntity(partition string, e domain.Employee) ([]byte, error) {
	skills, err := encodeList(e.Skills)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		rowKeys
		employeeProps
	}{rowKeys{partition, e.ID}, employeeProps{
		Name:       e.Name,
		Email:      e.Email,
		Phone:      e.Phone,
		Role:       string(e.Role),
		Department: e.Department,
		Skills:     skills,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  formatTime(e.CreatedAt),
	}})
}

func (EmployeeCodec) EncodePatch(partition, id string, p domain.EmployeePatch) ([]byte, error) {
	out := employeePatchProps{rowKeys: rowKeys{partition, id}, Name: p.Name, Email: p.Email, Phone: p.Phone, Department: p.Department}
	if p.Role != nil {
		s := string(*p.Role)
		out.Role = &s
	}
	if p.Skills != nil {
		skills, err := encodeList(p.Skills)
		if err != nil {
			return nil, err
		}
		out.Skills = &skills
	}
	return json.Marshal(out)
}

func (EmployeeCodec) DecodeEntity(data []byte) (domain.Employee, error) {
	var ent struct {
		aztables.Entity
		employeeProps
	}
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Employee{}, err
	}
	skills, err := decodeList[string](ent.Skills)
	if err != nil {
		return domain.Employee{}, err
	}
	created, err := parseTime(ent.CreatedAt)
	if err != nil {
		return domain.Employee{}, err
	}
	return domain.Employee{
		ID:         ent.RowKey,
		Name:       ent.Name,
		Email:      ent.Email,
		Phone:      ent.Phone,
		Role:       domain.Role(ent.Role),
		Department: ent.Department,
		Skills:     skills,
		CreatedBy:  ent.CreatedBy,
		CreatedAt:  created,
	}, nil
}

type categoryProps struct {
	Name          string `json:"Name"`
	Color         string `json:"Color"`
	Description   string `json:"Description"`
	Subcategories string `json:"Subcategories"`
	CreatedBy     string `json:"CreatedBy"`
}

type categoryPatchProps struct {
	rowKeys
	Name          *string `json:"Name,omitempty"`
	Color         *string `json:"Color,omitempty"`
	Description   *string `json:"Description,omitempty"`
	Subcategories *string `json:"Subcategories,omitempty"`
}

// CategoryCodec maps taxonomy categories to table entities. Subcategories and
// their templates live inside the category entity, so deleting the entity
// removes them too.
type CategoryCodec struct{}

func (CategoryCodec) EncodeEntity(partition string, c domain.Category) ([]byte, error) {
	subs := c.Subcategories
	if subs == nil {
		subs = []domain.Subcategory{}
	}
	raw, err := encodeList(subs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		rowKeys
		categoryProps
	}{rowKeys{partition, c.ID}, categoryProps{
		Name:          c.Name,
		Color:         c.Color,
		Description:   c.Description,
		Subcategories: raw,
		CreatedBy:     c.CreatedBy,
	}})
}

func (CategoryCodec) EncodePatch(partition, id string, p domain.CategoryPatch) ([]byte, error) {
	out := categoryPatchProps{rowKeys: rowKeys{partition, id}, Name: p.Name, Color: p.Color, Description: p.Description}
	if p.Subcategories != nil {
		raw, err := encodeList(p.Subcategories)
		if err != nil {
			return nil, err
		}
		out.Subcategories = &raw
	}
	return json.Marshal(out)
}

func (CategoryCodec) DecodeEntity(data []byte) (domain.Category, error) {
	var ent struct {
		aztables.Entity
		categoryProps
	}
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Category{}, err
	}
	subs, err := decodeList[domain.Subcategory](ent.Subcategories)
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{
		ID:            ent.RowKey,
		Name:          ent.Name,
		Color:         ent.Color,
		Description:   ent.Description,
		Subcategories: domain.CloneSubcategories(subs),
		CreatedBy:     ent.CreatedBy,
	}, nil
}
