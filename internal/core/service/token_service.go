package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

// Newly created tokens stay valid for ten years unless revoked earlier.
const defaultTokenLifetime = 10 * 365 * 24 * time.Hour

// TokenService implements API token management scoped to the owning user.
type TokenService struct {
	repo ports.TokenRepository
}

func NewTokenService(repo ports.TokenRepository) *TokenService {
	return &TokenService{repo: repo}
}

func (s *TokenService) Create(ctx context.Context, userID string, input ports.CreateTokenInput) (*domain.APIToken, error) {
	quota := input.RemainQuota
	if input.UnlimitedQuota {
		// An unlimited token carries no counter at all.
		quota = 0
	}
	if quota < 0 {
		quota = 0
	}

	now := time.Now().UTC()
	token := &domain.APIToken{
		UserID:         userID,
		Key:            newTokenKey(),
		Name:           input.Name,
		Status:         domain.TokenStatusEnabled,
		RemainQuota:    quota,
		UnlimitedQuota: input.UnlimitedQuota,
		CreatedTime:    now,
		AccessedTime:   now,
		ExpiredTime:    now.Add(defaultTokenLifetime),
	}
	return s.repo.Create(ctx, token)
}

func (s *TokenService) Get(ctx context.Context, userID, id string) (*domain.APIToken, error) {
	token, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if token.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return token, nil
}

func (s *TokenService) Update(ctx context.Context, userID string, input ports.UpdateTokenInput) (*domain.APIToken, error) {
	token, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if token.UserID != userID {
		return nil, domain.ErrForbidden
	}

	if input.Name != "" {
		token.Name = input.Name
	}
	if input.Status != 0 {
		token.Status = input.Status
	}
	if input.UnlimitedQuota != nil {
		token.UnlimitedQuota = *input.UnlimitedQuota
	}
	if token.UnlimitedQuota {
		token.RemainQuota = 0
	} else if input.RemainQuota != nil && *input.RemainQuota >= 0 {
		token.RemainQuota = *input.RemainQuota
	}

	if err := s.repo.Update(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *TokenService) Delete(ctx context.Context, userID, id string) error {
	token, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if token.UserID != userID {
		return domain.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *TokenService) List(ctx context.Context, userID string, page, pageSize int) (*ports.ListTokensResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	tokens, total, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return listTokensResult(tokens, total, page, pageSize), nil
}

func (s *TokenService) Search(ctx context.Context, userID, keyword string, page, pageSize int) (*ports.ListTokensResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	tokens, total, err := s.repo.SearchByUser(ctx, userID, keyword, page, pageSize)
	if err != nil {
		return nil, err
	}
	return listTokensResult(tokens, total, page, pageSize), nil
}

// Validate authenticates a token key. Expiry and exhaustion are recorded on
// the token the first time they are observed; the accessed timestamp is
// refreshed on success.
func (s *TokenService) Validate(ctx context.Context, key string) (*domain.APIToken, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrTokenNotFound
	}

	token, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := token.Usable(now); err != nil {
		switch err {
		case domain.ErrTokenExpired:
			token.Status = domain.TokenStatusExpired
			_ = s.repo.Update(ctx, token)
		case domain.ErrTokenExhausted:
			token.Status = domain.TokenStatusExhausted
			_ = s.repo.Update(ctx, token)
		}
		return nil, err
	}

	token.AccessedTime = now
	if err := s.repo.Update(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// newTokenKey mints an opaque 48-character key.
func newTokenKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")[:48]
}

func listTokensResult(tokens []*domain.APIToken, total int64, page, pageSize int) *ports.ListTokensResult {
	return &ports.ListTokensResult{
		Items:      tokens,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}
