package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/factuurdesk/backend/internal/infrastructure/config"
	"github.com/factuurdesk/backend/internal/infrastructure/logger"
	"github.com/factuurdesk/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// command runs against an open migrator with the remaining CLI arguments
type command struct {
	usage string
	run   func(m *migration.Migrator, args []string) error
}

var errUsage = errors.New("invalid arguments")

func main() {
	var (
		migrationsDir string
		logLevel      string
		confirm       bool
	)
	flag.StringVar(&migrationsDir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Confirm destructive commands (down, drop)")
	flag.Parse()

	commands := map[string]command{
		"up": {"up", func(m *migration.Migrator, _ []string) error { return m.Up() }},
		"down": {"down -confirm", func(m *migration.Migrator, _ []string) error {
			if !confirm {
				return fmt.Errorf("%w: down rolls back every migration, pass -confirm", errUsage)
			}
			return m.Down()
		}},
		"step": {"step <n>", func(m *migration.Migrator, args []string) error {
			n, err := intArg(args)
			if err != nil {
				return err
			}
			return m.Steps(n)
		}},
		"goto": {"goto <version>", func(m *migration.Migrator, args []string) error {
			v, err := intArg(args)
			if err != nil || v < 0 {
				return fmt.Errorf("%w: version must be a non-negative integer", errUsage)
			}
			return m.GoTo(uint(v))
		}},
		"force": {"force <version>", func(m *migration.Migrator, args []string) error {
			v, err := intArg(args)
			if err != nil {
				return err
			}
			return m.Force(v)
		}},
		"drop": {"drop -confirm", func(m *migration.Migrator, _ []string) error {
			if !confirm {
				return fmt.Errorf("%w: drop removes every table, pass -confirm", errUsage)
			}
			return m.Drop()
		}},
		"version": {"version", func(m *migration.Migrator, _ []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		}},
		"pending": {"pending", func(m *migration.Migrator, _ []string) error {
			pending, err := m.Pending(migrationsDir)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("schema is current")
			}
			for _, v := range pending {
				fmt.Printf("pending %06d\n", v)
			}
			return nil
		}},
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage(commands)
		os.Exit(1)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage(commands)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log.Info("Migration CLI started",
		zap.String("command", args[0]),
		zap.String("source", migration.SourceName(migrationsDir)),
		zap.String("database", cfg.Database.DBName),
	)

	m, err := migration.Open(cfg.Database.DSN(), migrationsDir, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}

	runErr := cmd.run(m, args[1:])
	if err := m.Close(); err != nil {
		log.Warn("Failed to close migrator", zap.Error(err))
	}
	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			fmt.Fprintf(os.Stderr, "usage: migrate %s\n", cmd.usage)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(runErr))
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: missing number", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func printUsage(commands map[string]command) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Println("Factuurdesk database migrations")
	fmt.Println()
	fmt.Println("Usage: migrate [-path dir] [-log-level level] [-confirm] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range names {
		fmt.Printf("  %s\n", commands[name].usage)
	}
	fmt.Println()
	fmt.Println("Connection settings come from config.toml or FACTUUR_DATABASE_* variables.")
}
