// Package cli regroupe les commandes cobra du binaire : serveur HTTP, réglages,
// rapports en console et import MySQL.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"incidents-dashboard/pkg/appconfig"
	"incidents-dashboard/pkg/cache"
	"incidents-dashboard/pkg/dashboard"
	"incidents-dashboard/pkg/database"
	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/datastore/gsheets"
	"incidents-dashboard/pkg/settings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var version = "dev"

type app struct {
	configPath string
	backend    string
	verbose    bool

	cfg    appconfig.Config
	logger *slog.Logger
}

// Run exécute la ligne de commande.
func Run() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "incidents-dashboard",
		Short:        "Incident tracking dashboard over a spreadsheet",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("INCIDENTS_CONFIG"), "fichier de configuration YAML")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "source de données (sheets, mysql, memory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "mode verbeux")

	root.AddCommand(
		newServeCommand(a),
		newSettingsCommand(a),
		newReportCommand(a),
		newImportCommand(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := appconfig.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.verbose {
		cfg.Verbose = true
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Verbose)
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.RFC3339,
	}))
}

// openSettings ouvre la base badger, en mémoire si aucun chemin n'est configuré.
func (a *app) openSettings() (*settings.BadgerStore, error) {
	return settings.OpenBadger(settings.BadgerConfig{
		Path:     a.cfg.SettingsPath,
		InMemory: a.cfg.SettingsPath == "",
		Logger:   a.logger,
	})
}

func (a *app) openBackend(ctx context.Context) (datastore.Backend, func(), error) {
	switch a.cfg.Backend {
	case appconfig.BackendSheets:
		b, err := gsheets.NewBackend(ctx, a.cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	case appconfig.BackendMySQL:
		db, dsnUsed, err := database.Open(a.cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		a.logger.Debug("connected", "dsn", dsnUsed)
		return database.NewBackend(db), func() { _ = db.Close() }, nil
	case appconfig.BackendMemory:
		return datastore.NewMemoryBackend(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
}

// service assemble le tableau de bord. close libère le cache, la base de réglages et
// la connexion au backend.
type service struct {
	*dashboard.Service
	close func()
}

func (a *app) newService(ctx context.Context) (*service, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := a.openSettings()
	if err != nil {
		return nil, err
	}
	backend, closeBackend, err := a.openBackend(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c := cache.NewTTL()
	c.Start()

	svc := dashboard.New(dashboard.Config{
		Settings: settings.New(store),
		Backend:  backend,
		Cache:    c,
		CacheTTL: a.cfg.CacheTTL,
		Location: loc,
		Logger:   a.logger,
	})
	return &service{
		Service: svc,
		close: func() {
			c.Stop()
			closeBackend()
			_ = store.Close()
		},
	}, nil
}
