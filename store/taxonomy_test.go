package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"projectboard/domain"
	"projectboard/storage"
)

type categoryMemory = storage.Memory[domain.Category, domain.CategoryPatch]

func newCategoryMemory() *categoryMemory {
	return storage.NewMemory[domain.Category, domain.CategoryPatch]()
}

func newTaxonomy(t *testing.T, remote storage.CategoryCollection, guard SeedGuard) *TaxonomyStore {
	t.Helper()
	s, _ := newTestSyncer()
	return NewTaxonomyStore(remote, s, testUser, guard)
}

func templates(t *testing.T, ts *TaxonomyStore, categoryID, sub string) []string {
	t.Helper()
	c, ok := ts.Category(categoryID)
	if !ok {
		t.Fatalf("category %s missing", categoryID)
	}
	i := c.Subcategory(sub)
	if i < 0 {
		t.Fatalf("subcategory %s missing", sub)
	}
	return c.Subcategories[i].Tasks
}

func TestEnsureSeededCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	remote := newCategoryMemory()
	ts := newTaxonomy(t, remote, nil)

	if err := ts.EnsureSeeded(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stored, _ := remote.List(ctx)
	if len(stored) != 5 {
		t.Fatalf("expected 5 seeded categories, got %d", len(stored))
	}
	local := ts.Categories()
	if len(local) != 5 {
		t.Fatalf("expected 5 local categories, got %d", len(local))
	}
	for i := range local {
		if local[i].ID != stored[i].ID {
			t.Fatalf("local category %d has id %q, persisted %q", i, local[i].ID, stored[i].ID)
		}
		if local[i].CreatedBy != testUser.UID {
			t.Fatalf("seeded category not stamped with creator")
		}
	}

	// A second bootstrap adopts the existing set.
	if err := ts.EnsureSeeded(ctx); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	stored, _ = remote.List(ctx)
	if len(stored) != 5 {
		t.Fatalf("existing taxonomy must not be reseeded, got %d", len(stored))
	}
}

func TestEnsureSeededFallsBackToDefaults(t *testing.T) {
	remote := newFaulty[domain.Category, domain.CategoryPatch]()
	remote.fail(&remote.createErr, errRemote)
	ts := newTaxonomy(t, remote, nil)

	err := ts.EnsureSeeded(context.Background())
	if !IsKind(err, KindSeed) || !errors.Is(err, errRemote) {
		t.Fatalf("expected seed error, got %v", err)
	}
	if got := ts.sync.Status().Error(); got != "Failed to initialize categories" {
		t.Fatalf("status error = %q", got)
	}
	local := ts.Categories()
	if len(local) != 5 || local[0].ID != "planning-analysis" {
		t.Fatalf("expected built-in taxonomy, got %#v", local)
	}
	if ts.sync.Status().Busy(categoriesCollection) {
		t.Fatalf("busy mark left set")
	}
}

// barrierCategories holds the first n List calls until all of them arrived,
// so every caller observes the same remote state.
type barrierCategories struct {
	*categoryMemory
	n    int32
	seen atomic.Int32
	wg   sync.WaitGroup
}

func newBarrierCategories(n int) *barrierCategories {
	b := &barrierCategories{categoryMemory: newCategoryMemory(), n: int32(n)}
	b.wg.Add(n)
	return b
}

func (b *barrierCategories) List(ctx context.Context) ([]domain.Category, error) {
	items, err := b.categoryMemory.List(ctx)
	if b.seen.Add(1) <= b.n {
		b.wg.Done()
		b.wg.Wait()
	}
	return items, err
}

func seedConcurrently(t *testing.T, stores ...*TaxonomyStore) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make([]error, len(stores))
	for i, ts := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ts.EnsureSeeded(context.Background())
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("store %d seed: %v", i, err)
		}
	}
}

func TestConcurrentSeedWithoutGuardDuplicates(t *testing.T) {
	remote := newBarrierCategories(2)
	a := newTaxonomy(t, remote, nil)
	b := newTaxonomy(t, remote, nil)

	seedConcurrently(t, a, b)

	stored, _ := remote.categoryMemory.List(context.Background())
	if len(stored) != 10 {
		t.Fatalf("expected both sessions to seed (10 categories), got %d", len(stored))
	}
}

func TestConcurrentSeedWithGuardSeedsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	guard := storage.NewRedisSeedGuard(rc, "seed:categories", 0)

	remote := newBarrierCategories(2)
	a := newTaxonomy(t, remote, guard)
	b := newTaxonomy(t, remote, guard)

	seedConcurrently(t, a, b)

	ctx := context.Background()
	stored, _ := remote.categoryMemory.List(ctx)
	if len(stored) != 5 {
		t.Fatalf("expected a single seed (5 categories), got %d", len(stored))
	}
	for _, ts := range []*TaxonomyStore{a, b} {
		if err := ts.Load(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(ts.Categories()) != 5 {
			t.Fatalf("expected 5 categories, got %d", len(ts.Categories()))
		}
	}
}

func heldGuard(t *testing.T) *storage.RedisSeedGuard {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	guard := storage.NewRedisSeedGuard(rc, "seed:categories", 0)
	if won, err := guard.Claim(context.Background()); err != nil || !won {
		t.Fatalf("pre-claim: won=%v err=%v", won, err)
	}
	return guard
}

func TestEnsureSeededFallsBackWhenClaimHolderNeverWrites(t *testing.T) {
	remote := newCategoryMemory()
	ts := newTaxonomy(t, remote, heldGuard(t))
	ts.seedWait = 50 * time.Millisecond
	ts.seedPoll = 5 * time.Millisecond

	err := ts.EnsureSeeded(context.Background())
	if !IsKind(err, KindSeed) || !errors.Is(err, ErrSeedPending) {
		t.Fatalf("expected pending seed failure, got %v", err)
	}
	if got := len(ts.Categories()); got != len(domain.DefaultCategories()) {
		t.Fatalf("expected built-in fallback, got %d categories", got)
	}
	if ts.sync.Status().Error() != "Failed to initialize categories" {
		t.Fatalf("status = %q", ts.sync.Status().Error())
	}
	if stored, _ := remote.List(context.Background()); len(stored) != 0 {
		t.Fatalf("loser must not seed, stored %d", len(stored))
	}
}

func TestEnsureSeededWaitsForClaimHolder(t *testing.T) {
	remote := newCategoryMemory()
	ts := newTaxonomy(t, remote, heldGuard(t))
	ts.seedWait = 2 * time.Second
	ts.seedPoll = 5 * time.Millisecond

	go func() {
		time.Sleep(20 * time.Millisecond)
		for _, c := range domain.DefaultCategories() {
			remote.Create(context.Background(), c)
		}
	}()

	if err := ts.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("ensure seeded: %v", err)
	}
	stored, _ := remote.List(context.Background())
	got := ts.Categories()
	if len(stored) != 5 || len(got) != 5 {
		t.Fatalf("expected the holder's 5 categories, stored=%d local=%d", len(stored), len(got))
	}
	for i := range got {
		if got[i].ID != stored[i].ID {
			t.Fatalf("expected remote ids, got %q want %q", got[i].ID, stored[i].ID)
		}
	}
}

func TestSubcategoryTemplateLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := newTaxonomy(t, newCategoryMemory(), nil)

	id, err := ts.CreateCategory(ctx, "QA", "#FFD3A5", "")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := ts.CreateSubcategory(ctx, id, "Regression"); err != nil {
		t.Fatalf("create subcategory: %v", err)
	}
	for _, task := range []string{"Smoke test", "Full suite"} {
		if err := ts.CreateTaskTemplate(ctx, id, "Regression", task); err != nil {
			t.Fatalf("create template %q: %v", task, err)
		}
	}
	if got := templates(t, ts, id, "Regression"); !slices.Equal(got, []string{"Smoke test", "Full suite"}) {
		t.Fatalf("templates = %v", got)
	}
	if err := ts.DeleteTaskTemplate(ctx, id, "Regression", 0); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	if got := templates(t, ts, id, "Regression"); !slices.Equal(got, []string{"Full suite"}) {
		t.Fatalf("templates = %v", got)
	}

	if err := ts.UpdateSubcategory(ctx, id, "Regression", "Release"); err != nil {
		t.Fatalf("rename subcategory: %v", err)
	}
	if got := templates(t, ts, id, "Release"); !slices.Equal(got, []string{"Full suite"}) {
		t.Fatalf("templates after rename = %v", got)
	}
	if err := ts.DeleteSubcategory(ctx, id, "Release"); err != nil {
		t.Fatalf("delete subcategory: %v", err)
	}
	c, _ := ts.Category(id)
	if len(c.Subcategories) != 0 {
		t.Fatalf("expected no subcategories, got %#v", c.Subcategories)
	}

	if err := ts.UpdateCategory(ctx, id, domain.CategoryPatch{Name: ptrString("Quality")}); err != nil {
		t.Fatalf("update category: %v", err)
	}
	if c, _ := ts.Category(id); c.Name != "Quality" {
		t.Fatalf("name = %q", c.Name)
	}
	if err := ts.DeleteCategory(ctx, id); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, ok := ts.Category(id); ok {
		t.Fatalf("category still present")
	}
}

func TestStaleTemplateDeleteOverwritesConcurrentEdit(t *testing.T) {
	ctx := context.Background()
	remote := newCategoryMemory()
	id, _ := remote.Create(ctx, domain.Category{
		Name:          "Testing",
		Subcategories: []domain.Subcategory{{Name: "Manual", Tasks: []string{"a", "b", "c"}}},
	})
	first := newTaxonomy(t, remote, nil)
	second := newTaxonomy(t, remote, nil)
	if err := first.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := first.DeleteTaskTemplate(ctx, id, "Manual", 2); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	// second still sees [a b c] and rewrites the list from that snapshot.
	if err := second.DeleteTaskTemplate(ctx, id, "Manual", 0); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	stored, _ := remote.List(ctx)
	if got := stored[0].Subcategories[0].Tasks; !slices.Equal(got, []string{"b", "c"}) {
		t.Fatalf("expected last writer to win with [b c], got %v", got)
	}
}

func TestTemplateLookupFailuresSkipRemote(t *testing.T) {
	ctx := context.Background()
	remote := newFaulty[domain.Category, domain.CategoryPatch]()
	id, _ := remote.Memory.Create(ctx, domain.Category{
		Name:          "Design",
		Subcategories: []domain.Subcategory{{Name: "UI", Tasks: []string{"Wireframes"}}},
	})
	ts := newTaxonomy(t, remote, nil)
	if err := ts.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		name string
		run  func() error
		want error
		msg  string
	}{
		{"unknown category", func() error { return ts.CreateSubcategory(ctx, "missing", "X") }, ErrCategoryNotFound, "Category not found"},
		{"unknown subcategory", func() error { return ts.CreateTaskTemplate(ctx, id, "UX", "Persona") }, ErrSubcategoryNotFound, "Subcategory not found"},
		{"index too large", func() error { return ts.DeleteTaskTemplate(ctx, id, "UI", 1) }, ErrTemplateIndex, "Task template not found"},
		{"negative index", func() error { return ts.DeleteTaskTemplate(ctx, id, "UI", -1) }, ErrTemplateIndex, "Task template not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !IsKind(err, KindLookup) || !errors.Is(err, tt.want) {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ts.sync.Status().Error(); got != tt.msg {
				t.Fatalf("status error = %q want %q", got, tt.msg)
			}
		})
	}
	if remote.wrote() != 0 {
		t.Fatalf("lookup failures must not reach the remote, writes=%d", remote.wrote())
	}

	if err := ts.CreateSubcategory(ctx, id, "  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := ts.CreateCategory(ctx, "", "", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if remote.wrote() != 0 {
		t.Fatalf("validation failures must not reach the remote")
	}
}

func TestFailedTemplateCreateLeavesSnapshot(t *testing.T) {
	ctx := context.Background()
	remote := newFaulty[domain.Category, domain.CategoryPatch]()
	id, _ := remote.Memory.Create(ctx, domain.Category{
		Name:          "Ops",
		Subcategories: []domain.Subcategory{{Name: "Deploy", Tasks: []string{"Pipeline"}}},
	})
	ts := newTaxonomy(t, remote, nil)
	if err := ts.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	remote.fail(&remote.updateErr, errRemote)

	err := ts.CreateTaskTemplate(ctx, id, "Deploy", "Rollback")
	if !IsKind(err, KindUpdate) || !errors.Is(err, errRemote) {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := templates(t, ts, id, "Deploy"); !slices.Equal(got, []string{"Pipeline"}) {
		t.Fatalf("snapshot changed on failure: %v", got)
	}
	if got := ts.sync.Status().Error(); got != "Failed to create task template" {
		t.Fatalf("status error = %q", got)
	}
	if ts.sync.Status().Busy(categoriesCollection) {
		t.Fatalf("busy mark left set")
	}
}

func TestLoadReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	remote := newCategoryMemory()
	id, _ := remote.Create(ctx, domain.Category{Name: "Only"})
	ts := newTaxonomy(t, remote, nil)
	if err := ts.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := ts.Categories()
	remote.Delete(ctx, id)
	if err := ts.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(ts.Categories()) != 0 {
		t.Fatalf("expected empty snapshot after reload")
	}
	if len(before) != 1 || before[0].Name != "Only" {
		t.Fatalf("earlier snapshot must not change, got %#v", before)
	}
}
