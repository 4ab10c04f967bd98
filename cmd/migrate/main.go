// Command migrate manages the operation history schema.
//
//	migrate [-dsn URL] up | down | steps N | version | force N
//
// The database URL comes from -dsn, then PDFDESK_DB_DSN, then the
// [database] section the server loads.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/JaimeStill/pdfdesk/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "PDFDESK_DB_DSN"

var errUsage = errors.New("usage: migrate [-dsn URL] up | down | steps N | version | force N")

// command is a parsed invocation. n is the argument of steps and force.
type command struct {
	name string
	n    int
}

func main() {
	dsn := flag.String("dsn", "", "database URL")
	flag.Parse()

	cmd, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(cmd, *dsn, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}

	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "down", "version":
		if len(args) != 1 {
			return command{}, errUsage
		}
	case "steps", "force":
		if len(args) != 2 {
			return command{}, errUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || (cmd.name == "steps" && n == 0) {
			return command{}, fmt.Errorf("%s: invalid count %q", cmd.name, args[1])
		}
		cmd.n = n
	default:
		return command{}, errUsage
	}
	return cmd, nil
}

func run(cmd command, dsn string, out io.Writer) error {
	target, err := resolveDSN(dsn)
	if err != nil {
		return fmt.Errorf("resolve database url: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, driverURL(target))
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd.name {
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintln(out, "version: none")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version: %d, dirty: %v\n", v, dirty)
		return nil
	case "force":
		if err := m.Force(cmd.n); err != nil {
			return err
		}
		fmt.Fprintf(out, "forced to version %d\n", cmd.n)
		return nil
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(cmd.n)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(out, "no change")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s complete\n", cmd.name)
	return nil
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.Database.URL(), nil
}

// driverURL selects the pgx migration driver for postgres URLs.
func driverURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}
