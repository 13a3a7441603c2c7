package ports

import (
	"context"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
)

// RegisterInput carries the data needed to create a self-registered account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// CreateUserInput is the administrative variant of RegisterInput; the actor's
// role bounds the role that may be granted.
type CreateUserInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
	Role        int
	Status      int
}

// AdminUpdateInput carries an administrative update of another user.
type AdminUpdateInput struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	Password    string
	Role        int
	Status      int
}

// ListUsersResult is returned by paginated user listings.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// UserService defines account use cases. Administrative operations take the
// acting user's role so the service can enforce the privilege hierarchy:
// no actor may touch a user whose role is greater than or equal to its own.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, login, password string) (*domain.User, error)
	GetSelf(ctx context.Context, id string) (*domain.User, error)
	UpdateSelf(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	DeleteSelf(ctx context.Context, id string) error
	GenerateAccessToken(ctx context.Context, id string) (string, error)

	ListUsers(ctx context.Context, page, pageSize int) (*ListUsersResult, error)
	SearchUsers(ctx context.Context, keyword string, page, pageSize int) (*ListUsersResult, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, actorRole int, input CreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, actorRole int, input AdminUpdateInput) error
	DeleteUser(ctx context.Context, actorRole int, id string) error

	// EnsureRootAccount creates the initial root user when the store is empty.
	EnsureRootAccount(ctx context.Context) error
}
