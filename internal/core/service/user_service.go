package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

const minPasswordLength = 8

// UserService implements registration, login, self-service and
// administrative account management.
type UserService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:    username,
		Password:    string(hash),
		DisplayName: username,
		Email:       input.Email,
		Role:        domain.RoleCommon,
		Status:      domain.UserStatusEnabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) Login(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Enabled() {
		return nil, domain.ErrUserDisabled
	}
	return user, nil
}

func (s *UserService) GetSelf(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) UpdateSelf(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(user, update); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteSelf(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// GenerateAccessToken mints a fresh opaque access token for the user,
// replacing any prior token.
func (s *UserService) GenerateAccessToken(ctx context.Context, id string) (string, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	user.AccessToken = token
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) (*ports.ListUsersResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	users, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return listUsersResult(users, total, page, pageSize), nil
}

func (s *UserService) SearchUsers(ctx context.Context, keyword string, page, pageSize int) (*ports.ListUsersResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	users, total, err := s.repo.Search(ctx, keyword, page, pageSize)
	if err != nil {
		return nil, err
	}
	return listUsersResult(users, total, page, pageSize), nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *UserService) CreateUser(ctx context.Context, actorRole int, input ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidRole
	}
	// Nobody may create a peer or a superior.
	if input.Role >= actorRole {
		return nil, domain.ErrForbidden
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = username
	}
	status := input.Status
	if status == 0 {
		status = domain.UserStatusEnabled
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:    username,
		Password:    string(hash),
		DisplayName: displayName,
		Email:       input.Email,
		Role:        input.Role,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created.Sanitized(), nil
}

func (s *UserService) UpdateUser(ctx context.Context, actorRole int, input ports.AdminUpdateInput) error {
	existing, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		return err
	}
	if existing.Role >= actorRole {
		return domain.ErrForbidden
	}

	if err := applyUpdate(existing, domain.UserUpdate{
		Username:    input.Username,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Password:    input.Password,
	}); err != nil {
		return err
	}
	// Zero means "role unchanged"; the hierarchy is enforced only on an
	// actual role change.
	if input.Role != 0 {
		if !domain.ValidRole(input.Role) {
			return domain.ErrInvalidRole
		}
		if input.Role >= actorRole {
			return domain.ErrForbidden
		}
		existing.Role = input.Role
	}
	if input.Status != 0 {
		existing.Status = input.Status
	}
	return s.repo.Update(ctx, existing)
}

func (s *UserService) DeleteUser(ctx context.Context, actorRole int, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Role >= actorRole {
		return domain.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// EnsureRootAccount creates root/123456 when no user exists yet, so a fresh
// deployment can be logged into. The password is expected to be changed
// immediately.
func (s *UserService) EnsureRootAccount(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	root := &domain.User{
		Username:    "root",
		Password:    string(hash),
		DisplayName: "Root User",
		Role:        domain.RoleRoot,
		Status:      domain.UserStatusEnabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.repo.Create(ctx, root)
	return err
}

func applyUpdate(user *domain.User, update domain.UserUpdate) error {
	if username := strings.TrimSpace(update.Username); username != "" {
		user.Username = username
	}
	if update.DisplayName != "" {
		user.DisplayName = update.DisplayName
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	if update.Password != "" {
		if len(update.Password) < minPasswordLength {
			return domain.ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(update.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.Password = string(hash)
	}
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func listUsersResult(users []*domain.User, total int64, page, pageSize int) *ports.ListUsersResult {
	items := make([]*domain.User, 0, len(users))
	for _, u := range users {
		items = append(items, u.Sanitized())
	}
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}
