package ports

import (
	"context"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
)

// TokenRepository defines the interface for API token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.APIToken) (*domain.APIToken, error)
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)
	FindByKey(ctx context.Context, key string) (*domain.APIToken, error)
	Update(ctx context.Context, token *domain.APIToken) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.APIToken, int64, error)
	SearchByUser(ctx context.Context, userID, keyword string, page, pageSize int) ([]*domain.APIToken, int64, error)
}
