// Command reptrack serves the workout tracker and its maintenance commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/claude/reptrack/internal/config"
	"github.com/claude/reptrack/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "reptrack",
	Short:         "Camera-based exercise rep tracker",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reptrack:", err)
		os.Exit(1)
	}
}

// openStore connects to the configured backend and applies migrations.
// For Postgres it also returns a pool collector for /metrics.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Store, []prometheus.Collector, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		lite, err := storage.OpenLite(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := lite.Migrate(); err != nil {
			lite.Close()
			return nil, nil, err
		}
		log.Info("database ready", "driver", cfg.Database.Driver, "path", cfg.Database.Path)
		return lite, nil, nil
	default:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn); err != nil {
			return nil, nil, fmt.Errorf("migrating: %w", err)
		}
		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database ready", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "name", cfg.Database.Name)
		collector := pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": cfg.Database.Name})
		return db, []prometheus.Collector{collector}, nil
	}
}
