package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/popis/internal/api"
	"github.com/erazemk/popis/internal/auth"
	"github.com/erazemk/popis/internal/config"
	"github.com/erazemk/popis/internal/db"
	"github.com/erazemk/popis/internal/export"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

const usage = `Usage: popis [flags] [command]

Commands:
  serve                   run the HTTP server (default)
  init                    create the database and an admin account
  import <file.csv>       create or update chromebooks from a CSV file

Flags:
  -d, -db <path>          SQLite database path (default: popis.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -p, -prefix <prefix>    device code prefix (default: stored setting or CHR)
  -h, -help               show this help and exit

Flags default to the POPIS_* environment variables, which may also be set
in a .env file.
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("popis", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.DevicePrefix, "prefix", cfg.DevicePrefix, "")
	fs.StringVar(&cfg.DevicePrefix, "p", cfg.DevicePrefix, "")

	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	cfg.Normalize()

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cmd := "serve"
	if fs.NArg() > 0 {
		cmd = fs.Arg(0)
	}

	switch cmd {
	case "serve":
		err = cmdServe(cfg)
	case "init":
		err = cmdInit(cfg)
	case "import":
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "import needs exactly one CSV file")
			fs.Usage()
			os.Exit(1)
		}
		err = cmdImport(cfg, fs.Arg(1))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		fs.Usage()
		os.Exit(1)
	}

	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func cmdInit(cfg *config.Config) error {
	if _, err := os.Stat(cfg.DatabasePath); err == nil {
		return fmt.Errorf("database file %s already exists", cfg.DatabasePath)
	}

	database, password, err := initDatabase(cfg)
	if err != nil {
		return err
	}
	database.Close()

	printInitResult(cfg.DatabasePath, cfg.AdminUser, password)
	return nil
}

func cmdServe(cfg *config.Config) error {
	// Auto-init if the database does not exist yet.
	if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DatabasePath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := openDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()

	// JWT secret lives in the database (generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	prefix, err := devicePrefix(ctx, database, cfg)
	if err != nil {
		return err
	}

	if n, err := store.PurgeExpiredTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired revoked tokens", "count", n)
	}

	issuer := auth.NewIssuer(jwtSecret, cfg.TokenExpiry)
	router := api.NewRouter(database, issuer, api.Options{Prefix: prefix, Location: cfg.TimeZone})

	mux := http.NewServeMux()
	mux.Handle("/api/", router)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok\n"))
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "prefix", prefix, "timezone", cfg.TimeZone.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

func cmdImport(cfg *config.Config, path string) error {
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		return fmt.Errorf("database %s: %w", cfg.DatabasePath, err)
	}

	database, err := openDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	prefix, err := devicePrefix(ctx, database, cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	chromebooks, err := export.ReadChromebooksCSV(f, prefix)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	created, updated, err := store.ImportChromebooks(ctx, database, chromebooks)
	if err != nil {
		return err
	}

	slog.Info("chromebooks imported", "file", path, "created", created, "updated", updated)
	return nil
}

// openDatabase opens the database and brings its schema up to date.
func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	slog.Info("database ready", "path", path)
	return database, nil
}

// devicePrefix resolves the device-code prefix: flag or environment first,
// then the stored setting.
func devicePrefix(ctx context.Context, database *sql.DB, cfg *config.Config) (string, error) {
	stored, err := store.GetSetting(ctx, database, store.SettingDevicePrefix)
	if err != nil {
		return "", fmt.Errorf("getting device prefix: %w", err)
	}
	return cfg.Prefix(stored), nil
}

// initDatabase creates a new database, runs migrations, and creates the admin user.
func initDatabase(cfg *config.Config) (*sql.DB, string, error) {
	path := cfg.DatabasePath
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("running migrations: %w", err))
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(err)
	}

	ctx := context.Background()
	if _, err := store.CreateUser(ctx, database, cfg.AdminUser, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	if cfg.DevicePrefix != "" {
		if err := store.SetSetting(ctx, database, store.SettingDevicePrefix, cfg.DevicePrefix); err != nil {
			return fail(fmt.Errorf("storing device prefix: %w", err))
		}
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}
