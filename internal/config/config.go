package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Ledger engine knobs. A request that cannot acquire its row locks within
	// LockTimeoutMs aborts instead of waiting indefinitely.
	LockTimeoutMs     int `env:"LOCK_TIMEOUT_MS" envDefault:"3000"`
	MaxCommitAttempts int `env:"MAX_COMMIT_ATTEMPTS" envDefault:"3"`

	// Optional external notification sink. Empty disables forwarding;
	// notifications are still recorded in-app.
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL" envDefault:""`
	NotifyForwardIntvlS int    `env:"NOTIFY_FORWARD_INTERVAL_S" envDefault:"15"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
