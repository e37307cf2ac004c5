package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"projectboard/domain"
	"projectboard/storage"
)

const categoriesCollection = "categories"

// SeedGuard serializes taxonomy bootstrap across sessions. Claim reports
// whether the caller won the right to seed.
type SeedGuard interface {
	Claim(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// TaxonomyStore holds the category snapshot and every taxonomy mutation.
// Subcategories and templates are edited by rewriting the whole subcategory
// list of their category, computed from the local snapshot.
type TaxonomyStore struct {
	remote storage.CategoryCollection
	sync   *Syncer
	user   domain.User
	guard  SeedGuard

	seedWait time.Duration
	seedPoll time.Duration

	mu    sync.RWMutex
	items []domain.Category
}

const (
	defaultSeedWait = 10 * time.Second
	defaultSeedPoll = 200 * time.Millisecond
)

// ErrSeedPending is returned when another session holds the seed claim but
// its categories did not appear in time.
var ErrSeedPending = errors.New("taxonomy seed by another session did not complete")

// NewTaxonomyStore returns an empty store. guard may be nil, in which case
// concurrent bootstraps against an empty collection can both seed.
func NewTaxonomyStore(remote storage.CategoryCollection, syncer *Syncer, user domain.User, guard SeedGuard) *TaxonomyStore {
	return &TaxonomyStore{
		remote:   remote,
		sync:     syncer,
		user:     user,
		guard:    guard,
		seedWait: defaultSeedWait,
		seedPoll: defaultSeedPoll,
	}
}

// Categories returns the current snapshot in collection order. The slice is
// a copy; its elements must be treated as read-only.
func (t *TaxonomyStore) Categories() []domain.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.items)
}

func (t *TaxonomyStore) Category(id string) (domain.Category, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.items {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (t *TaxonomyStore) replace(items []domain.Category) {
	if items == nil {
		items = []domain.Category{}
	}
	t.mu.Lock()
	t.items = items
	t.mu.Unlock()
}

// Load replaces the snapshot with the remote collection.
func (t *TaxonomyStore) Load(ctx context.Context) error {
	return t.sync.Load(ctx, categoriesCollection, func(ctx context.Context) error {
		items, err := t.remote.List(ctx)
		if err != nil {
			return err
		}
		t.replace(items)
		return nil
	})
}

// EnsureSeeded adopts the remote taxonomy, creating the built-in categories
// first when the collection is empty. Two sessions that both observe an
// empty collection both seed unless a SeedGuard is configured. On failure
// the built-in categories are kept in memory only.
func (t *TaxonomyStore) EnsureSeeded(ctx context.Context) error {
	err := t.sync.Seed(ctx, categoriesCollection, func(ctx context.Context) error {
		items, err := t.remote.List(ctx)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			t.replace(items)
			return nil
		}
		if t.guard != nil {
			won, err := t.guard.Claim(ctx)
			if err != nil {
				return err
			}
			if !won {
				t.sync.log.Info("taxonomy is being seeded by another session")
				items, err := t.awaitSeed(ctx)
				if err != nil {
					return err
				}
				t.replace(items)
				return nil
			}
		}
		created, err := t.seed(ctx)
		if err != nil {
			if t.guard != nil {
				if rerr := t.guard.Release(ctx); rerr != nil {
					t.sync.log.Warnf("unable to release seed guard: %v", rerr)
				}
			}
			return err
		}
		t.replace(created)
		return nil
	})
	if err != nil {
		t.replace(domain.DefaultCategories())
	}
	return err
}

// awaitSeed polls the remote collection until it holds at least the built-in
// categories written by the claim holder.
func (t *TaxonomyStore) awaitSeed(ctx context.Context) ([]domain.Category, error) {
	want := len(domain.DefaultCategories())
	ctx, cancel := context.WithTimeout(ctx, t.seedWait)
	defer cancel()
	ticker := time.NewTicker(t.seedPoll)
	defer ticker.Stop()
	for {
		items, err := t.remote.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(items) >= want {
			return items, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %d of %d categories", ErrSeedPending, len(items), want)
		case <-ticker.C:
		}
	}
}

func (t *TaxonomyStore) seed(ctx context.Context) ([]domain.Category, error) {
	defaults := domain.DefaultCategories()
	created := make([]domain.Category, 0, len(defaults))
	for _, c := range defaults {
		c.CreatedBy = t.user.UID
		id, err := t.remote.Create(ctx, c)
		if err != nil {
			return nil, err
		}
		created = append(created, c.WithID(id))
	}
	t.sync.log.WithField("count", len(created)).Info("seeded default taxonomy")
	return created, nil
}

func (t *TaxonomyStore) CreateCategory(ctx context.Context, name, color, description string) (string, error) {
	const failure = "Failed to create category"
	if strings.TrimSpace(name) == "" {
		return "", t.sync.fail(KindCreate, categoriesCollection, failure, ErrEmptyName)
	}
	c := domain.Category{
		Name:          name,
		Color:         color,
		Description:   description,
		Subcategories: []domain.Subcategory{},
		CreatedBy:     t.user.UID,
	}
	op := Op{Collection: categoriesCollection, Entity: domain.EntityCategory, Kind: KindCreate, Failure: failure, Data: c}
	return t.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return t.remote.Create(ctx, c)
	}, t.Load)
}

func (t *TaxonomyStore) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error {
	return t.update(ctx, id, patch, "Failed to update category")
}

// DeleteCategory removes the category together with its subcategories and
// templates.
func (t *TaxonomyStore) DeleteCategory(ctx context.Context, id string) error {
	op := Op{Collection: categoriesCollection, Entity: domain.EntityCategory, Kind: KindDelete, Failure: "Failed to delete category"}
	_, err := t.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, t.remote.Delete(ctx, id)
	}, t.Load)
	return err
}

func (t *TaxonomyStore) CreateSubcategory(ctx context.Context, categoryID, name string) error {
	return t.editSubcategories(ctx, categoryID, "Failed to create subcategory", func(subs []domain.Subcategory) ([]domain.Subcategory, error) {
		if strings.TrimSpace(name) == "" {
			return nil, ErrEmptyName
		}
		return append(subs, domain.Subcategory{Name: name, Tasks: []string{}}), nil
	})
}

func (t *TaxonomyStore) UpdateSubcategory(ctx context.Context, categoryID, oldName, newName string) error {
	return t.editSubcategories(ctx, categoryID, "Failed to update subcategory", func(subs []domain.Subcategory) ([]domain.Subcategory, error) {
		if strings.TrimSpace(newName) == "" {
			return nil, ErrEmptyName
		}
		i := indexOf(subs, oldName)
		if i < 0 {
			return nil, ErrSubcategoryNotFound
		}
		subs[i].Name = newName
		return subs, nil
	})
}

func (t *TaxonomyStore) DeleteSubcategory(ctx context.Context, categoryID, name string) error {
	return t.editSubcategories(ctx, categoryID, "Failed to delete subcategory", func(subs []domain.Subcategory) ([]domain.Subcategory, error) {
		i := indexOf(subs, name)
		if i < 0 {
			return nil, ErrSubcategoryNotFound
		}
		return slices.Delete(subs, i, i+1), nil
	})
}

// CreateTaskTemplate appends a template to the named subcategory.
func (t *TaxonomyStore) CreateTaskTemplate(ctx context.Context, categoryID, subcategory, task string) error {
	return t.editSubcategories(ctx, categoryID, "Failed to create task template", func(subs []domain.Subcategory) ([]domain.Subcategory, error) {
		if strings.TrimSpace(task) == "" {
			return nil, ErrEmptyName
		}
		i := indexOf(subs, subcategory)
		if i < 0 {
			return nil, ErrSubcategoryNotFound
		}
		subs[i].Tasks = append(subs[i].Tasks, task)
		return subs, nil
	})
}

// DeleteTaskTemplate removes the template at index as seen in the local
// snapshot. If another actor changed the list remotely since the last
// reload, the rewrite is based on stale positions and overwrites their edit.
func (t *TaxonomyStore) DeleteTaskTemplate(ctx context.Context, categoryID, subcategory string, index int) error {
	return t.editSubcategories(ctx, categoryID, "Failed to delete task template", func(subs []domain.Subcategory) ([]domain.Subcategory, error) {
		i := indexOf(subs, subcategory)
		if i < 0 {
			return nil, ErrSubcategoryNotFound
		}
		if index < 0 || index >= len(subs[i].Tasks) {
			return nil, ErrTemplateIndex
		}
		subs[i].Tasks = slices.Delete(subs[i].Tasks, index, index+1)
		return subs, nil
	})
}

func (t *TaxonomyStore) editSubcategories(ctx context.Context, categoryID, failure string, edit func([]domain.Subcategory) ([]domain.Subcategory, error)) error {
	c, ok := t.Category(categoryID)
	if !ok {
		return t.sync.fail(KindLookup, categoriesCollection, "Category not found", ErrCategoryNotFound)
	}
	subs := domain.CloneSubcategories(c.Subcategories)
	if subs == nil {
		subs = []domain.Subcategory{}
	}
	subs, err := edit(subs)
	switch {
	case errors.Is(err, ErrEmptyName):
		return t.sync.fail(KindUpdate, categoriesCollection, failure, err)
	case errors.Is(err, ErrSubcategoryNotFound):
		return t.sync.fail(KindLookup, categoriesCollection, "Subcategory not found", err)
	case errors.Is(err, ErrTemplateIndex):
		return t.sync.fail(KindLookup, categoriesCollection, "Task template not found", err)
	case err != nil:
		return t.sync.fail(KindUpdate, categoriesCollection, failure, err)
	}
	return t.update(ctx, categoryID, domain.CategoryPatch{Subcategories: subs}, failure)
}

func (t *TaxonomyStore) update(ctx context.Context, id string, patch domain.CategoryPatch, failure string) error {
	op := Op{Collection: categoriesCollection, Entity: domain.EntityCategory, Kind: KindUpdate, Failure: failure, Data: patch}
	_, err := t.sync.Mutate(ctx, op, func(ctx context.Context) (string, error) {
		return id, t.remote.Update(ctx, id, patch)
	}, t.Load)
	return err
}

func indexOf(subs []domain.Subcategory, name string) int {
	for i, sub := range subs {
		if sub.Name == name {
			return i
		}
	}
	return -1
}
