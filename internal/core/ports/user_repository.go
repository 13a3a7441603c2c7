package ports

import (
	"context"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByLogin resolves a user by username or email, in that order.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	FindByAccessToken(ctx context.Context, token string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, pageSize int) ([]*domain.User, int64, error)
	Search(ctx context.Context, keyword string, page, pageSize int) ([]*domain.User, int64, error)
	// Count reports the total number of users, used for root bootstrap.
	Count(ctx context.Context) (int64, error)
}
