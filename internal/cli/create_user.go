package cli

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/taskorbit/taskorbit/internal/auth"
	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/users"
)

// CreateUserCommand creates a user account from the terminal.
type CreateUserCommand struct {
	ConfigPath string
	Name       string
	Password   string
}

// NewCreateUserCommand creates a new CreateUserCommand.
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.ConfigPath, "config", os.Getenv("TASKORBIT_CONFIG"), "Path to the YAML config file")
	fs.StringVar(&cmd.Name, "name", "", "User name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (prompted for if omitted)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -name <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Name == "" {
		fs.Usage()
		return fmt.Errorf("-name is required")
	}
	return nil
}

// Run executes the create-user command.
func (cmd *CreateUserCommand) Run() error {
	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	repo := users.NewRepository(db.DB)

	// Reject a taken name before prompting the operator for a password.
	taken, err := repo.Exists(cmd.Name)
	if err != nil {
		return fmt.Errorf("failed to check user name: %w", err)
	}
	if taken {
		return fmt.Errorf("user %q already exists", cmd.Name)
	}

	password := cmd.Password
	if password == "" {
		fmt.Fprintf(os.Stderr, "Password for %s: ", cmd.Name)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	service := auth.NewService(repo, cfg.Auth.BcryptCost)
	user, err := service.Register(cmd.Name, password)
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s)\n", user.Name, user.ID)
	return nil
}
