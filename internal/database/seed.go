package database

import (
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskorbit/taskorbit/internal/entities"
)

// SeedUserName is the default user inserted by Seed.
const SeedUserName = "admin"

// seedAdminPassword is the well-known development password for the seeded
// admin account. Deployments are expected to change it after first login.
const seedAdminPassword = "change-me-admin"

var seedTasks = []entities.Task{
	{Title: "Develop webapp", Description: "Set up the base application structure"},
	{Title: "Design data pipeline", Description: "Decide how task events reach the reporting store"},
}

// Seed prepares the schema and inserts the default admin user with a small
// set of sample tasks. Running it against an already-seeded database is a
// no-op: the admin user is never duplicated.
func (d *Database) Seed(bcryptCost int) error {
	if err := d.EnsureSchema(); err != nil {
		return err
	}

	return d.WrapStorage("seed", d.DB.Transaction(func(tx *gorm.DB) error {
		var existing entities.User
		err := tx.Where("name = ?", SeedUserName).First(&existing).Error
		if err == nil {
			log.Printf("Seed: user %q already exists, nothing to do", SeedUserName)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcryptCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}

		admin := entities.User{
			Name:         SeedUserName,
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("create seed user: %w", err)
		}

		for _, task := range seedTasks {
			task.UserID = admin.ID
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("create seed task %q: %w", task.Title, err)
			}
		}

		log.Printf("Seed: created user %q with %d sample tasks", SeedUserName, len(seedTasks))
		return nil
	}))
}
