package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/repository"
	"github.com/AnshRaj112/sentimentpulse-backend/pkg/utils"
)

// UserService owns accounts, credentials and sessions.
type UserService struct {
	users    repository.Users
	sessions Sessions
}

func NewUserService(users repository.Users, sessions Sessions) *UserService {
	return &UserService{users: users, sessions: sessions}
}

// NewUser is the input for account creation.
type NewUser struct {
	Email    string
	Password string
	FullName *string
	Role     models.Role
}

func (s *UserService) create(ctx context.Context, in NewUser) (*models.User, error) {
	if err := utils.ValidateEmail(in.Email); err != nil {
		return nil, validationError(err.Error())
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, validationError(err.Error())
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, validationError("role must be user or admin")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        utils.NormalizeEmail(in.Email),
		FullName:     trimmedOrNil(in.FullName),
		Role:         in.Role,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("Email already registered", err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Register creates a regular account. The role is always user.
func (s *UserService) Register(ctx context.Context, email, password string, fullName *string) (*models.User, error) {
	return s.create(ctx, NewUser{Email: email, Password: password, FullName: fullName, Role: models.RoleUser})
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	invalid := unauthorizedError("Incorrect email or password")

	u, err := s.users.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, invalid
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("stored password hash is unreadable")
		return "", nil, invalid
	}
	if !ok {
		return "", nil, invalid
	}
	if !u.IsActive {
		return "", nil, forbiddenError("account is disabled")
	}

	token, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	return token, u, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Authenticate resolves a bearer token into the caller's identity. Deleted
// and disabled accounts are rejected even while their token is live.
func (s *UserService) Authenticate(ctx context.Context, token string) (Identity, error) {
	userID, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return Identity{}, unauthorizedError("invalid or expired session")
	}

	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Identity{}, unauthorizedError("invalid or expired session")
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return Identity{}, forbiddenError("account is disabled")
	}
	return Identity{UserID: u.ID, Role: u.Role}, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, id Identity) (*models.User, error) {
	u, err := s.users.GetUser(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func requireAdmin(id Identity) error {
	if !id.IsAdmin() {
		return forbiddenError("admin privileges required")
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, id Identity) ([]models.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) CreateUser(ctx context.Context, id Identity, in NewUser) (*models.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// UserUpdate carries the optional fields an admin may change.
type UserUpdate struct {
	Role     *models.Role
	IsActive *bool
}

// UpdateUser changes role or active flag. Admins cannot demote or disable
// themselves. Disabling an account ends its session.
func (s *UserService) UpdateUser(ctx context.Context, id Identity, userID int64, upd UserUpdate) (*models.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, validationError("role must be user or admin")
		}
		if userID == id.UserID && *upd.Role != models.RoleAdmin {
			return nil, validationError("Cannot remove your own admin role")
		}
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		if userID == id.UserID && !*upd.IsActive {
			return nil, validationError("Cannot disable your own account")
		}
		u.IsActive = *upd.IsActive
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if !u.IsActive {
		if err := s.sessions.RevokeUser(ctx, u.ID); err != nil {
			log.Warn().Err(err).Int64("user_id", u.ID).Msg("failed to revoke session of disabled user")
		}
	}
	return u, nil
}

// DeleteUser removes an account with its forms and reviews.
func (s *UserService) DeleteUser(ctx context.Context, id Identity, userID int64) error {
	if err := requireAdmin(id); err != nil {
		return err
	}
	if userID == id.UserID {
		return validationError("Cannot delete your own account")
	}

	err := s.users.DeleteUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError("User not found")
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to revoke session of deleted user")
	}
	return nil
}

// EnsureAdmin creates an admin account, or promotes, re-activates and resets
// the password of an existing one with the same email.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string, fullName *string) (*models.User, bool, error) {
	u, err := s.users.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		u, err := s.create(ctx, NewUser{Email: email, Password: password, FullName: fullName, Role: models.RoleAdmin})
		return u, err == nil, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("load user: %w", err)
	}

	if err := utils.ValidatePassword(password); err != nil {
		return nil, false, validationError(err.Error())
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.Role = models.RoleAdmin
	u.IsActive = true
	if name := trimmedOrNil(fullName); name != nil {
		u.FullName = name
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, false, fmt.Errorf("update user: %w", err)
	}
	return u, false, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
