package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	analyzerconfig "stock-whisperer/internal/analyzer/config"
	pkgconfig "stock-whisperer/pkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	migrationsPath string
	steps          int
)

func dsnFromConfig(db pkgconfig.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.DBName, db.SSLMode)
}

func newMigrator() *migrate.Migrate {
	cfg, err := analyzerconfig.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, err := migrate.New("file://"+migrationsPath, dsnFromConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}
	return m
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("Migration source error on close: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("Migration database error on close: %v", dbErr)
	}
}

func finish(err error, done string) {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("Database schema already up to date.")
		return
	}
	fmt.Println(done)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		m := newMigrator()
		defer closeMigrator(m)

		if steps > 0 {
			finish(m.Steps(steps), fmt.Sprintf("Applied %d migration step(s).", steps))
			return
		}
		finish(m.Up(), "Applied all pending migrations.")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		m := newMigrator()
		defer closeMigrator(m)

		if steps < 1 {
			steps = 1
		}
		finish(m.Steps(-steps), fmt.Sprintf("Reverted %d migration step(s).", steps))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Run: func(cmd *cobra.Command, args []string) {
		m := newMigrator()
		defer closeMigrator(m)

		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied yet.")
			return
		}
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		fmt.Printf("Schema version %d (dirty=%t)\n", version, dirty)
	},
}

func main() {
	rootCmd := &cobra.Command{Use: "migrate"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Directory holding the migration files")
	rootCmd.PersistentFlags().IntVarP(&steps, "steps", "n", 0, "Number of migration steps (0 means all for up, 1 for down)")

	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing migrate CLI: %s\n", err)
		os.Exit(1)
	}
}
