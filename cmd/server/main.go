package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/clintecker/hector/pkg/crypto"
	"github.com/clintecker/hector/pkg/datastore"
	"github.com/clintecker/hector/pkg/logging"
	"github.com/clintecker/hector/pkg/server"
	"github.com/clintecker/hector/pkg/store"
	"github.com/clintecker/hector/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	hashPassword := flag.String("hash-password", "", "Print the argon2id hash of a password and exit")
	addIdentity := flag.String("add-identity", "", "Add an identity given as user:password and exit")
	exportIdentities := flag.Bool("export-identities", false, "Export all identities as YAML and exit")
	importIdentities := flag.String("import-identities", "", "Import a YAML identities file into the sqlite backend and exit")

	var overrides server.Config
	flag.StringVar(&overrides.ServerName, "name", "", "Server name used as the source of replies")
	flag.StringVar(&overrides.ListenAddr, "listen", "", "TCP bind address for IRC clients")
	flag.StringVar(&overrides.MetricsAddr, "metrics", "", "HTTP bind address for Prometheus /metrics (empty to disable)")
	flag.StringVar(&overrides.IdentityBackend, "backend", "", "Identity backend: yaml or sqlite")
	flag.StringVar(&overrides.IdentitiesFile, "identities", "", "YAML identities file")
	flag.StringVar(&overrides.DBPath, "db", "", "SQLite database file path")
	flag.DurationVar(&overrides.PingInterval, "ping-interval", 0, "Interval between keep-alive PINGs")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: "+logging.LevelNames())
	flag.StringVar(&overrides.LogFormat, "log-format", "", "Log format: "+strings.Join(logging.Formats, " or "))
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}
	if *hashPassword != "" {
		encoded, err := crypto.EncodePassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(encoded)
		return
	}

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, overrides)

	logger, err := logging.Setup(logOptions(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle admin commands (run and exit)
	if *addIdentity != "" {
		if err := runAddIdentity(ctx, cfg, *addIdentity); err != nil {
			slog.Error("add identity", "err", err)
			os.Exit(1)
		}
		return
	}
	if *importIdentities != "" {
		if err := runImport(ctx, cfg, *importIdentities); err != nil {
			slog.Error("import identities", "err", err)
			os.Exit(1)
		}
		return
	}
	if *exportIdentities {
		if err := runExport(ctx, cfg); err != nil {
			slog.Error("export identities", "err", err)
			os.Exit(1)
		}
		return
	}

	identities, err := openIdentities(cfg)
	if err != nil {
		slog.Error("open identities", "backend", cfg.IdentityBackend, "err", err)
		os.Exit(1)
	}
	defer identities.Close()

	srv := server.New(cfg, server.Dependencies{Identities: identities, Logger: logger})
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// logOptions keeps stdout free for -export-identities output.
func logOptions(cfg server.Config) logging.Options {
	return logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	}
}

// applyFlags copies every flag the user set on top of cfg.
func applyFlags(cfg *server.Config, overrides server.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.ServerName = overrides.ServerName
		case "listen":
			cfg.ListenAddr = overrides.ListenAddr
		case "metrics":
			cfg.MetricsAddr = overrides.MetricsAddr
		case "backend":
			cfg.IdentityBackend = overrides.IdentityBackend
		case "identities":
			cfg.IdentitiesFile = overrides.IdentitiesFile
		case "db":
			cfg.DBPath = overrides.DBPath
		case "ping-interval":
			cfg.PingInterval = overrides.PingInterval
		case "log-level":
			cfg.LogLevel = overrides.LogLevel
		case "log-format":
			cfg.LogFormat = overrides.LogFormat
		}
	})
}

func openIdentities(cfg server.Config) (store.IdentityStore, error) {
	if cfg.IdentityBackend == server.BackendSQLite {
		return datastore.New(cfg.DBPath)
	}
	return store.LoadYAML(cfg.IdentitiesFile)
}

func runAddIdentity(ctx context.Context, cfg server.Config, entry string) error {
	username, password, ok := strings.Cut(entry, ":")
	if !ok || password == "" {
		return errors.New("expected user:password")
	}

	if cfg.IdentityBackend == server.BackendSQLite {
		db, err := datastore.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		_, err = db.CreateIdentity(ctx, username, password)
		return err
	}

	st, err := store.LoadYAML(cfg.IdentitiesFile)
	if errors.Is(err, fs.ErrNotExist) {
		st, err = store.NewMemory(), nil
	}
	if err != nil {
		return err
	}
	if _, err := st.CreateIdentity(ctx, username, password); err != nil {
		return err
	}
	records, err := st.Records(ctx)
	if err != nil {
		return err
	}
	return store.SaveYAML(cfg.IdentitiesFile, records)
}

// runImport copies the identities of a YAML file into the sqlite database,
// keeping their password hashes.
func runImport(ctx context.Context, cfg server.Config, path string) error {
	if cfg.IdentityBackend != server.BackendSQLite {
		return fmt.Errorf("import requires the %s backend", server.BackendSQLite)
	}
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return err
	}
	records, err := store.DecodeYAML(data)
	if err != nil {
		return err
	}

	db, err := datastore.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Import(ctx, records); err != nil {
		return err
	}
	slog.Info("identities imported", "count", len(records), "db", cfg.DBPath)
	return nil
}

func runExport(ctx context.Context, cfg server.Config) error {
	identities, err := openIdentities(cfg)
	if err != nil {
		return err
	}
	defer identities.Close()

	records, err := identities.Records(ctx)
	if err != nil {
		return err
	}
	data, err := store.MarshalRecords(records)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
