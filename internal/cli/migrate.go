package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zainab674/project-plus-sub002/internal/infrastructure/database"
)

// Migrator applies and inspects schema migrations
type Migrator interface {
	Up() (int, error)
	Down(steps int) (int, error)
	Status() ([]database.MigrationState, error)
}

type Dependencies struct {
	Migrator Migrator
	Out      io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the meeting database schema",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewUpCmd(deps))
	rootCmd.AddCommand(NewDownCmd(deps))
	rootCmd.AddCommand(NewStatusCmd(deps))

	return rootCmd
}

func NewUpCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := deps.Migrator.Up()
			if err != nil {
				return err
			}
			fmt.Fprintf(deps.Out, "Applied %d migration(s)\n", n)
			return nil
		},
	}
}

func NewDownCmd(deps *Dependencies) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			n, err := deps.Migrator.Down(steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(deps.Out, "Reverted %d migration(s)\n", n)
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to revert")

	return cmd
}

func NewStatusCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := deps.Migrator.Status()
			if err != nil {
				return err
			}
			for _, s := range states {
				applied := "pending"
				if s.AppliedAt != nil {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(deps.Out, "%-40s %s\n", s.ID, applied)
			}
			return nil
		},
	}
}

// DBMigrator runs migrations against a gorm connection
type DBMigrator struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func (m *DBMigrator) Up() (int, error) {
	before, err := database.MigrationStatus(m.DB)
	if err != nil {
		return 0, err
	}
	if err := database.Migrate(m.DB, m.Logger); err != nil {
		return 0, err
	}
	after, err := database.MigrationStatus(m.DB)
	if err != nil {
		return 0, err
	}
	return countApplied(after) - countApplied(before), nil
}

func (m *DBMigrator) Down(steps int) (int, error) {
	return database.Rollback(m.DB, steps, m.Logger)
}

func (m *DBMigrator) Status() ([]database.MigrationState, error) {
	return database.MigrationStatus(m.DB)
}

func countApplied(states []database.MigrationState) int {
	n := 0
	for _, s := range states {
		if s.AppliedAt != nil {
			n++
		}
	}
	return n
}
