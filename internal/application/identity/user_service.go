package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/auth"
)

// UserService handles user management operations within a tenant
type UserService struct {
	userRepo   identity.UserRepository
	tenantRepo platform.TenantRepository
	branchRepo org.BranchRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	tenantRepo platform.TenantRepository,
	branchRepo org.BranchRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		branchRepo: branchRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	TenantID  uuid.UUID
	Username  string
	Email     string
	Password  string
	FullName  string
	Phone     string
	Role      identity.Role
	BranchID  *uuid.UUID
	CreatedBy *uuid.UUID
}

// UpdateUserInput contains input for updating a user. Nil fields are left
// unchanged; a BranchID of uuid.Nil clears the home branch.
type UpdateUserInput struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Email    *string
	FullName *string
	Phone    *string
	BranchID *uuid.UUID
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserListResult represents paginated user list result
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Create creates a new user within the tenant
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	s.logger.Info("Creating new user",
		zap.String("username", input.Username),
		zap.String("tenant_id", input.TenantID.String()))

	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tenant")
	}

	// Enforce the subscription's user limit
	userCount, err := s.userRepo.CountByTenant(ctx, input.TenantID)
	if err != nil {
		s.logger.Error("Failed to count users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check user limit")
	}
	if !tenant.CanAddUser(int(userCount)) {
		return nil, shared.NewDomainError("USER_LIMIT_REACHED", "User limit for the current plan has been reached")
	}

	// Check if username already exists within the tenant
	exists, err := s.userRepo.ExistsByUsername(ctx, input.TenantID, input.Username)
	if err != nil {
		s.logger.Error("Failed to check username existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check username availability")
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_EXISTS", "Username already exists")
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, input.TenantID, input.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "Email already exists")
	}

	// The home branch must belong to the same tenant
	if input.BranchID != nil {
		if _, err := s.branchRepo.FindByIDForTenant(ctx, *input.BranchID, input.TenantID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("BRANCH_TENANT_MISMATCH", "Branch does not belong to this tenant")
			}
			s.logger.Error("Failed to find branch", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to verify branch")
		}
	}

	user, err := identity.NewUser(input.TenantID, input.Username, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}

	if input.FullName != "" {
		if err := user.SetFullName(input.FullName); err != nil {
			return nil, err
		}
	}
	if input.Phone != "" {
		if err := user.SetPhone(input.Phone); err != nil {
			return nil, err
		}
	}
	if input.BranchID != nil {
		user.AssignBranch(input.BranchID)
	}
	if input.CreatedBy != nil {
		user.SetCreatedBy(*input.CreatedBy)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create user")
	}

	s.logger.Info("User created successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return toUserDTO(user), nil
}

// GetByID retrieves a user scoped to the tenant
func (s *UserService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// List retrieves a paginated list of the tenant's users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) (*UserListResult, error) {
	users, total, err := s.userRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	pageSize := filter.Limit()
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	userDTOs := make([]UserDTO, len(users))
	for i := range users {
		userDTOs[i] = *toUserDTO(&users[i])
	}

	return &UserListResult{
		Users:      userDTOs,
		Total:      total,
		Page:       filter.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates a user's information
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.findUser(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, input.TenantID, *input.Email)
		if err != nil {
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
		}
		if exists {
			return nil, shared.NewDomainError("EMAIL_EXISTS", "Email already exists")
		}
		if err := user.SetEmail(*input.Email); err != nil {
			return nil, err
		}
	}

	if input.FullName != nil {
		if err := user.SetFullName(*input.FullName); err != nil {
			return nil, err
		}
	}

	if input.Phone != nil {
		if err := user.SetPhone(*input.Phone); err != nil {
			return nil, err
		}
	}

	if input.BranchID != nil {
		if *input.BranchID == uuid.Nil {
			user.AssignBranch(nil)
		} else {
			if _, err := s.branchRepo.FindByIDForTenant(ctx, *input.BranchID, input.TenantID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.NewDomainError("BRANCH_TENANT_MISMATCH", "Branch does not belong to this tenant")
				}
				s.logger.Error("Failed to find branch", zap.Error(err))
				return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to verify branch")
			}
			branchID := *input.BranchID
			user.AssignBranch(&branchID)
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	s.logger.Info("User updated", zap.String("user_id", input.ID.String()))

	return toUserDTO(user), nil
}

// ChangeRole changes a user's role. Demoting the last active admin below
// admin rank is refused.
func (s *UserService) ChangeRole(ctx context.Context, tenantID, id uuid.UUID, role identity.Role) (*UserDTO, error) {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() && user.IsActive() && !role.AtLeast(identity.RoleAdmin) {
		admins, err := s.userRepo.CountActiveAdmins(ctx, tenantID)
		if err != nil {
			s.logger.Error("Failed to count active admins", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check admin count")
		}
		if admins <= 1 {
			return nil, shared.NewDomainError("LAST_ADMIN_PROTECTED", "Cannot demote the last active admin")
		}
	}

	if err := user.ChangeRole(role); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to change user role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to change role")
	}

	s.logger.Info("User role changed",
		zap.String("user_id", id.String()),
		zap.String("role", string(role)))

	return toUserDTO(user), nil
}

// Activate activates a user
func (s *UserService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := user.Activate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to activate user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate user")
	}

	s.logger.Info("User activated", zap.String("user_id", id.String()))

	return toUserDTO(user), nil
}

// Deactivate deactivates a user and invalidates their sessions. The last
// active admin of a tenant cannot be deactivated.
func (s *UserService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() && user.IsActive() {
		admins, err := s.userRepo.CountActiveAdmins(ctx, tenantID)
		if err != nil {
			s.logger.Error("Failed to count active admins", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check admin count")
		}
		if admins <= 1 {
			return nil, shared.NewDomainError("LAST_ADMIN_PROTECTED", "Cannot deactivate the last active admin")
		}
	}

	if err := user.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to deactivate user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate user")
	}

	s.invalidateUserSessions(ctx, user.ID)

	s.logger.Info("User deactivated", zap.String("user_id", id.String()))

	return toUserDTO(user), nil
}

// Unlock unlocks a locked user account
func (s *UserService) Unlock(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := user.Unlock(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to unlock user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to unlock user")
	}

	s.logger.Info("User unlocked", zap.String("user_id", id.String()))

	return toUserDTO(user), nil
}

// ResetPassword sets a new password without the old one (admin action) and
// invalidates the user's sessions.
func (s *UserService) ResetPassword(ctx context.Context, tenantID, id uuid.UUID, newPassword string) error {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to reset password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.invalidateUserSessions(ctx, user.ID)

	s.logger.Info("User password reset", zap.String("user_id", id.String()))

	return nil
}

// Delete deletes an inactive user
func (s *UserService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	user, err := s.findUser(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if !user.IsInactive() {
		return shared.NewDomainError("USER_NOT_INACTIVE", "Only inactive users can be deleted")
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		s.logger.Error("Failed to delete user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete user")
	}

	s.logger.Info("User deleted", zap.String("user_id", id.String()))

	return nil
}

func (s *UserService) findUser(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		s.logger.Error("Failed to find user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find user")
	}
	return user, nil
}

// invalidateUserSessions revokes all outstanding tokens for the user.
// Best-effort: Redis failures are logged and the operation continues.
func (s *UserService) invalidateUserSessions(ctx context.Context, userID uuid.UUID) {
	ttl := s.jwtService.GetRefreshTokenExpiration()
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), ttl); err != nil {
		s.logger.Warn("Failed to invalidate user sessions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// toUserDTO converts domain User to UserDTO
func toUserDTO(user *identity.User) *UserDTO {
	return &UserDTO{
		ID:          user.ID,
		TenantID:    user.TenantID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Phone:       user.Phone,
		Role:        string(user.Role),
		Status:      string(user.Status),
		BranchID:    user.BranchID,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
