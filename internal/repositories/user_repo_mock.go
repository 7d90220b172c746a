package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[models.ID]models.User
	order []models.ID
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository(seed ...models.User) *MockUserRepository {
	r := &MockUserRepository{users: make(map[models.ID]models.User)}
	for i := range seed {
		_ = r.Create(context.Background(), &seed[i])
	}
	return r
}

// GetAll returns all users in insertion order.
func (r *MockUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.User, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.users[id])
	}
	return list, nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id models.ID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id.String())
	}
	return &user, nil
}

// GetByEmail returns the user with the given email, ignoring case.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s %w", email, apperrors.ErrNotFound)
}

// Create adds a new user.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = models.ID(uuid.New().String())
	}
	if _, exists := r.users[user.ID]; !exists {
		r.order = append(r.order, user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

// Update merges fields into an existing user.
func (r *MockUserRepository) Update(_ context.Context, id models.ID, fields map[string]interface{}) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id.String())
	}
	var updated models.User
	if err := MergeFields(current, fields, &updated); err != nil {
		return nil, err
	}
	updated.ID = id
	r.users[id] = updated
	return &updated, nil
}

// Delete removes a user.
func (r *MockUserRepository) Delete(_ context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperrors.NotFound("user", id.String())
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
