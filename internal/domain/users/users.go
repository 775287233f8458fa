package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edueval/teaching-system/internal/auth"
	"github.com/edueval/teaching-system/internal/domain/record"
)

var (
	ErrNotImplemented  = errors.New("users repository: not implemented")
	ErrNotFound        = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmailExists     = errors.New("email already in use")
	ErrInvalidRole     = errors.New("invalid role")
	ErrRoleNotAllowed  = errors.New("role cannot be self-assigned")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Role gates which pages and operations a user can reach.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role name. An empty string yields RoleStudent.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

// Staff reports whether the role may read other users' records.
func (r Role) Staff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// User represents an authenticated user record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines persistence behaviour for users.
type Repository interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Save(ctx context.Context, user User) (User, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
}

// NullRepository can be used when no storage is configured.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (User, error) {
	return User{}, ErrNotImplemented
}

func (NullRepository) FindByEmail(context.Context, string) (User, error) {
	return User{}, ErrNotImplemented
}

func (NullRepository) Save(context.Context, User) (User, error) { return User{}, ErrNotImplemented }

func (NullRepository) List(context.Context, int, int) ([]User, error) { return nil, ErrNotImplemented }

// Service exposes user registration and authentication logic.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (User, error)
	Provision(ctx context.Context, input RegisterInput) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
}

type service struct {
	repo Repository
}

// RegisterInput captures data required to create an account.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// NewService constructs a user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Register creates a student account. Staff accounts (teacher, admin) can
// only be provisioned.
func (s *service) Register(ctx context.Context, input RegisterInput) (User, error) {
	role, err := ParseRole(input.Role)
	if err != nil {
		return User{}, err
	}
	if role.Staff() {
		return User{}, ErrRoleNotAllowed
	}
	return s.create(ctx, input, role)
}

func (s *service) Provision(ctx context.Context, input RegisterInput) (User, error) {
	role, err := ParseRole(input.Role)
	if err != nil {
		return User{}, err
	}
	return s.create(ctx, input, role)
}

func (s *service) create(ctx context.Context, input RegisterInput, role Role) (User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return User{}, record.Required("email")
	}
	if len(input.Password) < MinPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", record.ErrInvalid, MinPasswordLength)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotImplemented) {
		return User{}, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}

	return s.repo.Save(ctx, User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		PasswordHash: hash,
	})
}

func (s *service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, record.Required("email")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return User{}, ErrInvalidPassword
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, ErrNotFound
	}
	return s.repo.FindByEmail(ctx, email)
}

func (s *service) List(ctx context.Context, offset, limit int) ([]User, error) {
	return s.repo.List(ctx, offset, limit)
}
