package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// LedgerConfig tunes how input is decoded ahead of the engine.
type LedgerConfig struct {
	BatchSize int `env:"LEDGER_BATCH_SIZE" envDefault:"1000"`
	Workers   int `env:"LEDGER_WORKERS" envDefault:"4"`
}
