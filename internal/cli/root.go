// Package cli implements ivyctl, the IvyForms maintenance command.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ivyforms/ivyforms/internal/store"
)

const defaultDatabaseURL = "ivyforms.db"

type options struct {
	databaseURL string
}

// NewRootCmd builds the ivyctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ivyctl",
		Short: "Manage an IvyForms installation",
		Long: `Manage an IvyForms installation from the command line.

Examples:
  # Apply pending migrations
  ivyctl migrate

  # Render a template against sample data
  ivyctl render --template thanks.txt --data sample.yaml

  # Copy a form between installations
  ivyctl form export 1 -o contact.yaml
  ivyctl form import contact.yaml --database-url postgres://...`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()
			if opts.databaseURL == "" {
				opts.databaseURL = os.Getenv("DATABASE_URL")
			}
			if opts.databaseURL == "" {
				opts.databaseURL = defaultDatabaseURL
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "SQLite path or PostgreSQL connection string (default $DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(opts),
		newRenderCmd(),
		newFormCmd(opts),
		newAdminCmd(opts),
	)
	return root
}

// Execute runs ivyctl with os.Args.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDB connects and migrates so every command sees the current schema.
func (o *options) openDB(ctx context.Context) (*store.DB, error) {
	db, err := store.Open(ctx, o.databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
