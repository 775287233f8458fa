package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edueval/teaching-system/internal/domain/users"
	memstore "github.com/edueval/teaching-system/internal/storage/memory"
)

func TestServiceRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := memstore.NewUserRepository()
	svc := users.NewService(repo)

	user, err := svc.Register(ctx, users.RegisterInput{
		Email:    "Test@Example.com",
		Name:     "Test User",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected ID to be set")
	}
	if user.PasswordHash == "" {
		t.Fatalf("expected password hash")
	}
	if user.Role != users.RoleStudent {
		t.Fatalf("expected default role student, got %s", user.Role)
	}
	if user.Email != "test@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}

	authed, err := svc.Authenticate(ctx, "test@example.com", "supersecret")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected same user ID")
	}

	if _, err := svc.Authenticate(ctx, "test@example.com", "wrong"); !errors.Is(err, users.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceRegisterRules(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(memstore.NewUserRepository())

	if _, err := svc.Register(ctx, users.RegisterInput{Email: "a@example.com", Password: "short"}); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	if _, err := svc.Register(ctx, users.RegisterInput{Email: "", Password: "longenough"}); err == nil {
		t.Fatalf("expected missing email to be rejected")
	}
	if _, err := svc.Register(ctx, users.RegisterInput{Email: "a@example.com", Password: "longenough", Role: "admin"}); !errors.Is(err, users.ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}
	if _, err := svc.Register(ctx, users.RegisterInput{Email: "a@example.com", Password: "longenough", Role: "janitor"}); !errors.Is(err, users.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if _, err := svc.Register(ctx, users.RegisterInput{Email: "t@example.com", Password: "longenough", Role: "Teacher"}); !errors.Is(err, users.ErrRoleNotAllowed) {
		t.Fatalf("expected teacher self-registration to be refused, got %v", err)
	}

	student, err := svc.Register(ctx, users.RegisterInput{Email: "t@example.com", Password: "longenough", Role: "Student"})
	if err != nil {
		t.Fatalf("register student failed: %v", err)
	}
	if student.Role != users.RoleStudent {
		t.Fatalf("expected student role, got %s", student.Role)
	}

	if _, err := svc.Register(ctx, users.RegisterInput{Email: "T@example.com", Password: "longenough"}); !errors.Is(err, users.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestServiceProvisionAllowsAdmin(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(memstore.NewUserRepository())

	admin, err := svc.Provision(ctx, users.RegisterInput{Email: "root@example.com", Password: "longenough", Role: "admin"})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if admin.Role != users.RoleAdmin || !admin.Role.Staff() {
		t.Fatalf("expected admin staff role, got %s", admin.Role)
	}

	got, err := svc.Get(ctx, admin.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Email != "root@example.com" {
		t.Fatalf("unexpected email %s", got.Email)
	}

	list, err := svc.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 user, got %d", len(list))
	}
}

func TestNullRepository(t *testing.T) {
	svc := users.NewService(users.NullRepository{})
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, users.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestServiceGetByEmail(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(memstore.NewUserRepository())

	created, err := svc.Register(ctx, users.RegisterInput{Email: "lookup@example.com", Password: "longenough"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	got, err := svc.GetByEmail(ctx, " LOOKUP@example.com ")
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, got.ID)
	}
	if _, err := svc.GetByEmail(ctx, ""); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty email, got %v", err)
	}
}
