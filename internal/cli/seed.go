// Package cli implements the maintenance subcommands of the taskorbit binary.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
)

// SeedCommand populates the store with the demo admin user and tasks.
type SeedCommand struct {
	ConfigPath string
}

// NewSeedCommand creates a new SeedCommand.
func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

// ParseFlags parses command line flags.
func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.ConfigPath, "config", os.Getenv("TASKORBIT_CONFIG"), "Path to the YAML config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the admin user with a pair of starter tasks.\n")
		fmt.Fprintf(os.Stderr, "Running seed against an already seeded store is a no-op.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the seed command.
func (cmd *SeedCommand) Run() error {
	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Seed(cfg.Auth.BcryptCost); err != nil {
		return fmt.Errorf("failed to seed %s: %w", db.String(), err)
	}

	fmt.Printf("Seeded %s\n", db.String())
	return nil
}
