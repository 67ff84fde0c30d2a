// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByName("admin")
package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository over a database handle or a
// unit-of-work transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new active user. Password hashing happens in the auth
// layer; this stores the hash as given.
func (r *Repository) Create(name, passwordHash string) (*entities.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: user name must not be empty", database.ErrInvalidInput)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash must not be empty", database.ErrInvalidInput)
	}

	user := &entities.User{
		Name:         name,
		PasswordHash: passwordHash,
		Active:       true,
	}
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user %q", database.ErrAlreadyExists, name)
		}
		return nil, err
	}
	return user, nil
}

// GetByName retrieves a user by their unique login name.
func (r *Repository) GetByName(name string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("name = ?", name).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id.
func (r *Repository) GetByID(id uuid.UUID) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with the given name is already registered.
func (r *Repository) Exists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// Deactivate soft-disables the user. Users are never hard-deleted in
// normal operation.
func (r *Repository) Deactivate(id uuid.UUID) error {
	res := r.db.Model(&entities.User{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(id uuid.UUID) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
