package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/users"
	"github.com/taskorbit/taskorbit/internal/entities"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is deactivated")
	ErrInvalidUserName    = errors.New("user name must be 3-64 characters of letters, digits, dots, dashes or underscores")
)

var userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,64}$`)

// Service registers users and verifies credentials against stored hashes.
type Service struct {
	users      *users.Repository
	bcryptCost int
}

func NewService(repo *users.Repository, bcryptCost int) *Service {
	return &Service{users: repo, bcryptCost: bcryptCost}
}

// Register creates a new user account with a hashed password.
func (s *Service) Register(name, password string) (*entities.User, error) {
	if !userNamePattern.MatchString(name) {
		return nil, ErrInvalidUserName
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	// The unique index on the name decides duplicates, so two concurrent
	// registrations of the same name cannot both win.
	user, err := s.users.Create(name, hash)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	log.Printf("Registered user %s", user.Name)
	return user, nil
}

// Authenticate verifies credentials and stamps the login time. The same
// ErrInvalidCredentials is returned for unknown names and wrong passwords
// so callers cannot tell which accounts exist.
func (s *Service) Authenticate(name, password string) (*entities.User, error) {
	user, err := s.users.GetByName(name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserInactive
	}

	if err := s.users.TouchLastLogin(user.ID); err != nil {
		log.Printf("Failed to record login time for %s: %v", user.Name, err)
	}
	return user, nil
}
