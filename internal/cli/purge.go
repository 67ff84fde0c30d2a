package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/tasks"
)

// PurgeCommand deletes completed tasks older than the retention window.
type PurgeCommand struct {
	ConfigPath string
	MaxAge     time.Duration
}

// NewPurgeCommand creates a new PurgeCommand.
func NewPurgeCommand() *PurgeCommand {
	return &PurgeCommand{}
}

// ParseFlags parses command line flags.
func (cmd *PurgeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)

	fs.StringVar(&cmd.ConfigPath, "config", os.Getenv("TASKORBIT_CONFIG"), "Path to the YAML config file")
	fs.DurationVar(&cmd.MaxAge, "max-age", 0, "Override the configured retention window (e.g. 720h)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s purge [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete completed tasks whose completion is older than the retention window.\n")
		fmt.Fprintf(os.Stderr, "Active tasks are never touched.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the purge command.
func (cmd *PurgeCommand) Run() error {
	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		return err
	}

	maxAge := cmd.MaxAge
	if maxAge == 0 {
		maxAge = cfg.Retention.MaxAge
	}
	if maxAge <= 0 {
		return fmt.Errorf("retention window must be positive, got %s", maxAge)
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cutoff := time.Now().Add(-maxAge)
	purged, err := tasks.NewRepository(db.DB).PurgeCompletedBefore(cutoff)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	fmt.Printf("Purged %d completed tasks older than %s from %s\n", purged, maxAge, db.String())
	return nil
}
