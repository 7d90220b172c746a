package services

import (
	"context"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// UserService handles the admin user pages.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetAllUsers lists users without their passwords.
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// GetUserByID returns one user without the password.
func (s *UserService) GetUserByID(ctx context.Context, id models.ID) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := u.Public()
	return &public, nil
}

// UpdateUser applies a partial edit. A new password is hashed first.
func (s *UserService) UpdateUser(ctx context.Context, id models.ID, fields map[string]interface{}) (*models.User, error) {
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("body", "no fields to update")
	}
	if raw, ok := fields["password"]; ok {
		pw, isString := raw.(string)
		if !isString || len(pw) < 6 {
			return nil, apperrors.NewValidationError("password", "must be at least 6 characters")
		}
		hashed, err := HashPassword(pw)
		if err != nil {
			return nil, err
		}
		fields["password"] = hashed
	}
	if raw, ok := fields["email"]; ok {
		email, _ := raw.(string)
		if err := ValidateStruct(models.User{Email: email}); err != nil || email == "" {
			return nil, apperrors.NewValidationError("email", "must be a valid email")
		}
	}
	u, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	public := u.Public()
	return &public, nil
}

// DeleteUser removes a user.
func (s *UserService) DeleteUser(ctx context.Context, id models.ID) error {
	return s.repo.Delete(ctx, id)
}
