package domain

import "slices"

// Subcategory groups task templates. Templates have no identity beyond their
// text and position in Tasks.
type Subcategory struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// Category is the top level of the task template taxonomy.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Color         string        `json:"color,omitempty"`
	Description   string        `json:"description,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
	CreatedBy     string        `json:"createdBy,omitempty"`
}

func (c Category) Key() string { return c.ID }

func (c Category) WithID(id string) Category {
	c.ID = id
	return c
}

func (c Category) Clone() Category {
	c.Subcategories = CloneSubcategories(c.Subcategories)
	return c
}

// Subcategory returns the position of the named subcategory, or -1.
func (c Category) Subcategory(name string) int {
	for i, sub := range c.Subcategories {
		if sub.Name == name {
			return i
		}
	}
	return -1
}

// CloneSubcategories deep copies a subcategory list, keeping nil as nil.
func CloneSubcategories(subs []Subcategory) []Subcategory {
	if subs == nil {
		return nil
	}
	out := make([]Subcategory, len(subs))
	for i, sub := range subs {
		out[i] = Subcategory{Name: sub.Name, Tasks: slices.Clone(sub.Tasks)}
		if out[i].Tasks == nil {
			out[i].Tasks = []string{}
		}
	}
	return out
}

// CategoryPatch carries partial category updates. A non-nil Subcategories
// replaces the whole list.
type CategoryPatch struct {
	Name          *string       `json:"name,omitempty"`
	Color         *string       `json:"color,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

func (p CategoryPatch) Validate() error { return nil }

func (p CategoryPatch) Apply(v Category) Category {
	v = v.Clone()
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Color != nil {
		v.Color = *p.Color
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Subcategories != nil {
		v.Subcategories = CloneSubcategories(p.Subcategories)
	}
	return v
}
