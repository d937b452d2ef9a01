package authsession

import (
	"errors"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config defines a public type used by authsession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API        APIConfig
	Storage    StorageConfig
	Refresh    RefreshConfig
	Revalidate RevalidateConfig
	Clock      ClockConfig
	Events     EventsConfig
	Metrics    MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by authsession APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	// BaseURL of the Secret Safe backend, e.g. "https://api.secretsafe.app".
	BaseURL string `env:"SECRETSAFE_API_URL"`

	// Timeout bounds every backend request. A timeout is a transient
	// failure, never token invalidation.
	Timeout time.Duration `env:"SECRETSAFE_API_TIMEOUT" envDefault:"10s"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by authsession APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	// Dir holds the session database and cookie mirror. Defaults to
	// ~/.secretsafe when empty.
	Dir string `env:"SECRETSAFE_STATE_DIR"`

	// RedisAddr switches the primary backend from the bbolt file database
	// to redis. Intended for server-rendered deployments.
	RedisAddr   string `env:"SECRETSAFE_REDIS_ADDR"`
	RedisPrefix string `env:"SECRETSAFE_REDIS_PREFIX" envDefault:"authsession:"`

	// CleanupGrace is how long after token expiry the deferred cleanup
	// fires.
	CleanupGrace time.Duration `env:"SECRETSAFE_CLEANUP_GRACE" envDefault:"24h"`
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by authsession APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	// Threshold is the time-to-expiry at or under which a silent refresh
	// is due.
	Threshold time.Duration `env:"SECRETSAFE_REFRESH_THRESHOLD" envDefault:"5m"`
}

/*
====================================
REVALIDATE CONFIG
====================================
*/

// RevalidateConfig defines a public type used by authsession APIs.
//
// RevalidateConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RevalidateConfig struct {
	// Interval between periodic current-user checks while a session is
	// live. Zero disables revalidation.
	Interval time.Duration `env:"SECRETSAFE_REVALIDATE_INTERVAL" envDefault:"5m"`
}

/*
====================================
CLOCK CONFIG
====================================
*/

// ClockConfig defines a public type used by authsession APIs.
//
// ClockConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClockConfig struct {
	// HealthInterval between token-health recomputations.
	HealthInterval time.Duration `env:"SECRETSAFE_HEALTH_INTERVAL" envDefault:"30s"`
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig defines a public type used by authsession APIs.
//
// EventsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventsConfig struct {
	Enabled    bool `env:"SECRETSAFE_EVENTS_ENABLED" envDefault:"true"`
	BufferSize int  `env:"SECRETSAFE_EVENTS_BUFFER" envDefault:"256"`
	DropIfFull bool `env:"SECRETSAFE_EVENTS_DROP_IF_FULL" envDefault:"true"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authsession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `env:"SECRETSAFE_METRICS_ENABLED" envDefault:"true"`
	EnableLatencyHistograms bool `env:"SECRETSAFE_METRICS_LATENCY" envDefault:"false"`
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			RedisPrefix:  "authsession:",
			CleanupGrace: 24 * time.Hour,
		},
		Refresh: RefreshConfig{
			Threshold: 5 * time.Minute,
		},
		Revalidate: RevalidateConfig{
			Interval: 5 * time.Minute,
		},
		Clock: ClockConfig{
			HealthInterval: 30 * time.Second,
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or storage checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("invalid API timeout")
	}
	if c.Refresh.Threshold <= 0 {
		return errors.New("invalid refresh threshold")
	}
	if c.Revalidate.Interval < 0 {
		return errors.New("invalid revalidate interval")
	}
	if c.Clock.HealthInterval <= 0 {
		return errors.New("invalid health interval")
	}
	if c.Storage.CleanupGrace <= 0 {
		return errors.New("invalid cleanup grace")
	}
	return nil
}

// warnInsecureEnvFile checks whether the .env file (if present) has overly
// permissive permissions. Group or world readable files risk exposing
// credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// FromEnv loads configuration from the environment, reading a .env file
// first when one exists in the working directory.
func FromEnv() (Config, error) {
	_ = godotenv.Load()
	warnInsecureEnvFile()

	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}
