// Package entities defines the persisted domain model: users and the
// tasks they own. Table names are resolved by the database layer's naming
// strategy (schema-qualified for server backends, prefixed for SQLite), so
// the models deliberately carry no TableName methods.
package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns zero or more tasks. Users are never hard-deleted in normal
// operation; deactivation flips the Active flag instead.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Tasks []Task `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Task belongs to exactly one user. Completion is the presence of
// CompletedAt; toggling clears or stamps it.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Completed reports whether the task is done.
func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}

// BeforeCreate assigns a time-ordered UUIDv7 identifier so primary keys
// sort roughly by creation time across all backends.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		u.ID = id
	}
	return nil
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}
