package ports

import (
	"context"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
)

// CreateTokenInput carries the owner-supplied token configuration. When
// UnlimitedQuota is set the numeric quota is ignored entirely.
type CreateTokenInput struct {
	Name           string
	RemainQuota    int64
	UnlimitedQuota bool
}

// UpdateTokenInput carries an owner update of an existing token. The quota
// pair is applied only when non-nil, so a status-only update leaves the
// quota untouched.
type UpdateTokenInput struct {
	ID             string
	Name           string
	Status         int
	RemainQuota    *int64
	UnlimitedQuota *bool
}

// ListTokensResult is returned by paginated token listings.
type ListTokensResult struct {
	Items      []*domain.APIToken
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// TokenService defines API token use cases. Every operation is scoped to the
// owning user; tokens are never visible to other principals.
type TokenService interface {
	Create(ctx context.Context, userID string, input CreateTokenInput) (*domain.APIToken, error)
	Get(ctx context.Context, userID, id string) (*domain.APIToken, error)
	Update(ctx context.Context, userID string, input UpdateTokenInput) (*domain.APIToken, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, page, pageSize int) (*ListTokensResult, error)
	Search(ctx context.Context, userID, keyword string, page, pageSize int) (*ListTokensResult, error)
	// Validate authenticates a request made with a token key, lazily flipping
	// status to expired/exhausted when the condition is observed.
	Validate(ctx context.Context, key string) (*domain.APIToken, error)
}
