package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/ledgerengine/internal/config"
	"github.com/fastprodman/ledgerengine/pkg/envconf"
	"github.com/joho/godotenv"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ExportEnabled   bool          `env:"EXPORT_ENABLED" envDefault:"false"`
	Ledger          config.LedgerConfig

	// Postgres is only loaded when ExportEnabled is set.
	Postgres *config.PostgresConfig `env:"-"`
}

// readConfig loads an optional .env file and then the process environment.
func readConfig() (*apiConfig, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}

	if !cfg.ExportEnabled {
		return cfg, nil
	}

	pg := new(config.PostgresConfig)

	err = envconf.Load(pg)
	if err != nil {
		return nil, fmt.Errorf("load postgres config: %w", err)
	}

	cfg.Postgres = pg

	return cfg, nil
}
