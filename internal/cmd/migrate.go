package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/migrations"
	"github.com/Skotchmaster/marketplace/pkg/config"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version|force N]",
	Short: "Apply or roll back the database schema",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func newMigrator(dsn string) (*migrate.Migrate, *sql.DB, error) {
	if dsn == "" {
		return nil, nil, errors.New("DATABASE_URL is empty")
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not create migrate driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not read migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, conn, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	l := logging.New(cfg.LogLevel).With("command", "migrate")

	m, conn, err := newMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(args) != 2 {
			return errors.New("force needs a version")
		}
		v, perr := strconv.Atoi(args[1])
		if perr != nil {
			return fmt.Errorf("bad version %q: %w", args[1], perr)
		}
		err = m.Force(v)
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		l.Error("migrate_error", "action", action, "error", err)
		return err
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	l.Info("migrate_success", "action", action, "version", version, "dirty", dirty)
	return nil
}
