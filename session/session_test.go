package session

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"projectboard/domain"
	"projectboard/storage"
)

type stubAuth struct {
	users map[string]domain.User
}

func (s stubAuth) UserFromAuthHeader(h string) (domain.User, error) {
	u, ok := s.users[h]
	if !ok {
		return domain.User{}, ErrBadAuthorization
	}
	return u, nil
}

func testOptions() Options {
	logger, _ := test.NewNullLogger()
	return Options{Logger: logger}
}

func TestOpenSeedsAndLoads(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Employees.Create(ctx, domain.Employee{Name: "Ada"})
	user := domain.User{UID: "u1", DisplayName: "Ada"}

	s, err := Open(ctx, user, backend, testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if got := len(s.Taxonomy.Categories()); got != 5 {
		t.Fatalf("expected seeded taxonomy, got %d categories", got)
	}
	if len(s.Entities.Employees()) != 1 {
		t.Fatalf("expected employees to be loaded")
	}
	if s.Status.Error() != "" || s.Status.Loading() {
		t.Fatalf("unexpected status: %q loading=%v", s.Status.Error(), s.Status.Loading())
	}

	backend.Projects.Create(ctx, domain.Project{Name: "Pushed"})
	if len(s.Entities.Projects()) != 1 {
		t.Fatalf("expected live project push")
	}

	a := s.NewAssembler()
	if err := a.ToggleCategory("missing"); err == nil {
		t.Fatalf("assembler should resolve against the session taxonomy")
	}
}

func TestCloseStopsWatching(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	s, err := Open(ctx, domain.User{UID: "u1"}, backend, testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()
	s.Close()
	backend.Tasks.Create(ctx, domain.Task{Name: "late"})
	if len(s.Entities.Tasks()) != 0 {
		t.Fatalf("closed session must not receive pushes")
	}
}

func TestManagerLoginLogout(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	auth := stubAuth{users: map[string]domain.User{
		"Bearer a": {UID: "a"},
		"Bearer b": {UID: "b"},
	}}
	m := NewManager(auth, backend, testOptions())

	if _, err := m.Current(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session, got %v", err)
	}
	if _, err := m.Login(ctx, "Bearer nope"); !errors.Is(err, ErrBadAuthorization) {
		t.Fatalf("expected auth failure, got %v", err)
	}

	first, err := m.Login(ctx, "Bearer a")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u, ok := m.CurrentUser(); !ok || u.UID != "a" {
		t.Fatalf("current user = %#v", u)
	}

	second, err := m.Login(ctx, "Bearer b")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if cur, _ := m.Current(); cur != second {
		t.Fatalf("second login must replace the session")
	}
	backend.Tasks.Create(ctx, domain.Task{Name: "x"})
	if len(first.Entities.Tasks()) != 0 {
		t.Fatalf("replaced session must be closed")
	}
	if len(second.Entities.Tasks()) != 1 {
		t.Fatalf("new session should be watching")
	}

	m.Logout()
	if _, ok := m.CurrentUser(); ok {
		t.Fatalf("expected no user after logout")
	}
	m.Logout()
}

func TestManagerAuthorize(t *testing.T) {
	ctx := context.Background()
	auth := stubAuth{users: map[string]domain.User{
		"Bearer a": {UID: "a"},
		"Bearer b": {UID: "b"},
	}}
	m := NewManager(auth, storage.NewMemoryBackend(), testOptions())
	defer m.Logout()

	if _, err := m.Authorize("Bearer a"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session, got %v", err)
	}
	opened, err := m.Login(ctx, "Bearer a")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	tests := map[string]error{
		"":          ErrBadAuthorization,
		"Bearer b":  ErrForeignToken,
		"Bearer zz": ErrBadAuthorization,
	}
	for header, want := range tests {
		if _, err := m.Authorize(header); !errors.Is(err, want) {
			t.Fatalf("Authorize(%q) = %v, want %v", header, err, want)
		}
	}
	s, err := m.Authorize("Bearer a")
	if err != nil || s != opened {
		t.Fatalf("expected the open session, got %v %v", s, err)
	}
}
