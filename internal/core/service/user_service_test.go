package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	copy := cloneUser(user)
	r.nextID++
	copy.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == login || (u.Email != "" && u.Email == login) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByAccessToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range r.users {
		if u.AccessToken != "" && u.AccessToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username || (email != "" && u.Email == email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, page, pageSize int) ([]*domain.User, int64, error) {
	all := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, cloneUser(u))
	}
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(r.users)), nil
}

func (r *stubUserRepo) Search(_ context.Context, keyword string, page, pageSize int) ([]*domain.User, int64, error) {
	var hits []*domain.User
	for _, u := range r.users {
		if strings.Contains(u.Username, keyword) || strings.Contains(u.DisplayName, keyword) || strings.Contains(u.Email, keyword) {
			hits = append(hits, cloneUser(u))
		}
	}
	return hits, int64(len(hits)), nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func TestUserService_Register_Success(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice",
		Password: "longenough",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Password == "longenough" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("longenough")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleCommon {
		t.Fatalf("expected role %d, got %d", domain.RoleCommon, user.Role)
	}
	if user.DisplayName != "alice" {
		t.Fatalf("expected display name to default to username, got %q", user.DisplayName)
	}
}

func TestUserService_Register_ShortPassword(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Password: "short1"}); err != domain.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Password: "password1"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Password: "password2"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_Login_Success(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "carol", Password: "s3cretpass", Email: "carol@example.com"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, err := svc.Login(context.Background(), "carol", "s3cretpass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	// Login by email resolves the same account.
	if _, err := svc.Login(context.Background(), "carol@example.com", "s3cretpass"); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
}

func TestUserService_Login_InvalidPassword(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	_, _ = svc.Register(context.Background(), ports.RegisterInput{Username: "dave", Password: "goodpass1"})
	if _, err := svc.Login(context.Background(), "dave", "badpass99"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserService_Login_UnknownUser(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "ghost", "whatever1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserService_Login_DisabledUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	user, err := svc.Register(context.Background(), ports.RegisterInput{Username: "eve", Password: "password1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	stored := repo.users[user.ID]
	stored.Status = domain.UserStatusDisabled

	if _, err := svc.Login(context.Background(), "eve", "password1"); err != domain.ErrUserDisabled {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestUserService_GenerateAccessToken_ReplacesPrior(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	user, _ := svc.Register(context.Background(), ports.RegisterInput{Username: "frank", Password: "password1"})

	first, err := svc.GenerateAccessToken(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	second, err := svc.GenerateAccessToken(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh token on regeneration")
	}
	if repo.users[user.ID].AccessToken != second {
		t.Fatalf("stored token not replaced")
	}
	if _, err := repo.FindByAccessToken(context.Background(), first); err != domain.ErrUserNotFound {
		t.Fatalf("old token should no longer resolve, got %v", err)
	}
}

func TestUserService_UpdateSelf_PasswordPolicy(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	user, _ := svc.Register(context.Background(), ports.RegisterInput{Username: "grace", Password: "password1"})

	if _, err := svc.UpdateSelf(context.Background(), user.ID, domain.UserUpdate{Password: "tiny"}); err != domain.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	updated, err := svc.UpdateSelf(context.Background(), user.ID, domain.UserUpdate{DisplayName: "Grace H"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.DisplayName != "Grace H" {
		t.Fatalf("display name not applied: %q", updated.DisplayName)
	}
	if updated.Username != "grace" {
		t.Fatalf("unset fields must be preserved, got username %q", updated.Username)
	}
}

func TestUserService_CreateUser_RoleHierarchy(t *testing.T) {
	svc := NewUserService(newStubUserRepo())

	// An admin cannot mint a peer admin, let alone a root.
	_, err := svc.CreateUser(context.Background(), domain.RoleAdmin, ports.CreateUserInput{
		Username: "peer", Password: "password1", Role: domain.RoleAdmin,
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for peer role, got %v", err)
	}

	user, err := svc.CreateUser(context.Background(), domain.RoleAdmin, ports.CreateUserInput{
		Username: "minion", Password: "password1", Role: domain.RoleCommon,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.Status != domain.UserStatusEnabled {
		t.Fatalf("expected enabled status default, got %d", user.Status)
	}
	if user.AccessToken != "" {
		t.Fatalf("admin-created view must not expose an access token")
	}
}

func TestUserService_UpdateUser_RoleHierarchy(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	root, _ := repo.Create(context.Background(), &domain.User{Username: "boss", Role: domain.RoleRoot, Status: domain.UserStatusEnabled})

	err := svc.UpdateUser(context.Background(), domain.RoleAdmin, ports.AdminUpdateInput{
		ID: root.ID, Username: "boss", Role: domain.RoleCommon,
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden editing a superior, got %v", err)
	}

	common, _ := repo.Create(context.Background(), &domain.User{Username: "pawn", Role: domain.RoleCommon, Status: domain.UserStatusEnabled})
	err = svc.UpdateUser(context.Background(), domain.RoleAdmin, ports.AdminUpdateInput{
		ID: common.ID, Username: "pawn", Role: domain.RoleAdmin,
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden granting a peer role, got %v", err)
	}

	err = svc.UpdateUser(context.Background(), domain.RoleRoot, ports.AdminUpdateInput{
		ID: common.ID, Username: "pawn", Role: domain.RoleAdmin, Status: domain.UserStatusDisabled,
	})
	if err != nil {
		t.Fatalf("root update failed: %v", err)
	}
	if repo.users[common.ID].Role != domain.RoleAdmin || repo.users[common.ID].Status != domain.UserStatusDisabled {
		t.Fatalf("update not applied: %+v", repo.users[common.ID])
	}
}

func TestUserService_UpdateUser_OmittedRoleUnchanged(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	common, _ := repo.Create(context.Background(), &domain.User{Username: "pawn", Role: domain.RoleCommon, Status: domain.UserStatusEnabled})

	// A rename that says nothing about the role must not touch it.
	err := svc.UpdateUser(context.Background(), domain.RoleAdmin, ports.AdminUpdateInput{
		ID: common.ID, Username: "renamed",
	})
	if err != nil {
		t.Fatalf("username-only update failed: %v", err)
	}
	if got := repo.users[common.ID]; got.Username != "renamed" || got.Role != domain.RoleCommon {
		t.Fatalf("expected role preserved on username-only update, got %+v", got)
	}

	// Same for a status-only toggle.
	err = svc.UpdateUser(context.Background(), domain.RoleAdmin, ports.AdminUpdateInput{
		ID: common.ID, Status: domain.UserStatusDisabled,
	})
	if err != nil {
		t.Fatalf("status-only update failed: %v", err)
	}
	if got := repo.users[common.ID]; got.Role != domain.RoleCommon || got.Status != domain.UserStatusDisabled {
		t.Fatalf("expected role preserved on status-only update, got %+v", got)
	}
}

func TestUserService_DeleteUser_RoleHierarchy(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	admin, _ := repo.Create(context.Background(), &domain.User{Username: "admin", Role: domain.RoleAdmin, Status: domain.UserStatusEnabled})

	if err := svc.DeleteUser(context.Background(), domain.RoleAdmin, admin.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden deleting a peer, got %v", err)
	}
	if err := svc.DeleteUser(context.Background(), domain.RoleRoot, admin.ID); err != nil {
		t.Fatalf("root delete failed: %v", err)
	}
}

func TestUserService_EnsureRootAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	if err := svc.EnsureRootAccount(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	root, err := repo.FindByLogin(context.Background(), "root")
	if err != nil {
		t.Fatalf("root user not created: %v", err)
	}
	if root.Role != domain.RoleRoot {
		t.Fatalf("expected root role, got %d", root.Role)
	}

	// A second call on a populated store is a no-op.
	if err := svc.EnsureRootAccount(context.Background()); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	if n, _ := repo.Count(context.Background()); n != 1 {
		t.Fatalf("expected a single user, got %d", n)
	}
}

func TestUserService_ListUsers_Pagination(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)

	for i := 0; i < 25; i++ {
		_, _ = repo.Create(context.Background(), &domain.User{Username: fmt.Sprintf("user%02d", i), Role: domain.RoleCommon, Status: domain.UserStatusEnabled})
	}

	result, err := svc.ListUsers(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 25 {
		t.Fatalf("expected total 25, got %d", result.Total)
	}
	if result.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", result.TotalPages)
	}
	if len(result.Items) != 10 {
		t.Fatalf("expected 10 items on page 2, got %d", len(result.Items))
	}
	for _, u := range result.Items {
		if u.AccessToken != "" || u.Password != "" {
			t.Fatalf("listed users must be sanitized: %+v", u)
		}
	}
}
