package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jt828/ollyllm-go/internal/config"
	"github.com/jt828/ollyllm-go/pkg/observability"
	"github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/spf13/cobra"
)

var (
	sourcePath string
	steps      int
)

var rootCmd = &cobra.Command{
	Use:           "migration",
	Short:         "Apply or roll back the collector database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(func(m *migrate.Migrate) error {
			if steps > 0 {
				return m.Steps(steps)
			}
			return m.Up()
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(func(m *migrate.Migrate) error {
			if steps > 0 {
				return m.Steps(-steps)
			}
			return m.Down()
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourcePath, "path", "file://migrations", "migration source URL")
	rootCmd.PersistentFlags().IntVar(&steps, "steps", 0, "number of steps to migrate (0 = all)")
	rootCmd.AddCommand(upCmd, downCmd)
}

func run(apply func(m *migrate.Migrate) error) error {
	log, err := implementation.NewZapLogger(false)
	if err != nil {
		return err
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	m, err := migrate.New(sourcePath, cfg.DSN)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := apply(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info("migration completed", observability.Int64("version", int64(version)), observability.Bool("dirty", dirty))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
