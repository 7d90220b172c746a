package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/backend"
	"storefront/internal/models"
)

// RESTUserRepository is a UserRepository backed by the REST API.
type RESTUserRepository struct {
	client *backend.Client
}

// NewRESTUserRepository creates a new instance of RESTUserRepository.
func NewRESTUserRepository(client *backend.Client) *RESTUserRepository {
	return &RESTUserRepository{client: client}
}

// GetAll fetches every user.
func (r *RESTUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := r.client.Get(ctx, backend.PathUsers, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// GetByID fetches a single user.
func (r *RESTUserRepository) GetByID(ctx context.Context, id models.ID) (*models.User, error) {
	var user models.User
	if _, err := r.client.Get(ctx, backend.ResourcePath(backend.PathUsers, id.String()), nil, &user); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id.String())
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetByEmail asks the backend to filter by email and re-checks the match,
// ignoring case.
func (r *RESTUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	if _, err := r.client.Get(ctx, backend.PathUsers, url.Values{"email": {email}}, &users); err != nil {
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user with email %s %w", email, apperrors.ErrNotFound)
}

// Create posts a new user.
func (r *RESTUserRepository) Create(ctx context.Context, user *models.User) error {
	if _, err := r.client.Post(ctx, backend.PathUsers, user, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update applies a partial edit and returns the stored user.
func (r *RESTUserRepository) Update(ctx context.Context, id models.ID, fields map[string]interface{}) (*models.User, error) {
	var user models.User
	if _, err := r.client.Patch(ctx, backend.ResourcePath(backend.PathUsers, id.String()), fields, &user); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id.String())
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// Delete removes a user.
func (r *RESTUserRepository) Delete(ctx context.Context, id models.ID) error {
	if _, err := r.client.Delete(ctx, backend.ResourcePath(backend.PathUsers, id.String())); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", id.String())
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
