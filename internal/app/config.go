package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ridecipher/internal/crypto"
	"ridecipher/internal/session"
	"ridecipher/internal/vault"
)

const envPrefix = "RIDECIPHER_"

// Config holds runtime options for the gateway process.
type Config struct {
	HTTPAddr          string
	LogLevel          string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	VaultCapacity    int
	SessionMaxAge    time.Duration
	SweepInterval    time.Duration
	SweepStopTimeout time.Duration

	Curve       string
	CipherSuite string

	// JWTSecret enables bearer-token auth on /v1 routes when set.
	JWTSecret string

	// At most one of RedisURL and RecordDir may be set; with neither the
	// gateway does not persist records.
	RedisURL  string
	RecordDir string
	RecordTTL time.Duration

	CreateRate  float64
	CreateBurst int
}

// LoadConfig reads Config from RIDECIPHER_* environment variables. A .env
// file in the working directory, or the file named by RIDECIPHER_ENV_FILE,
// is loaded first without overriding variables already set.
func LoadConfig() (Config, error) {
	if err := loadDotenv(); err != nil {
		return Config{}, err
	}
	cfg := Config{
		HTTPAddr:          EnvString(envPrefix+"HTTP_ADDR", ":8080"),
		LogLevel:          EnvString(envPrefix+"LOG_LEVEL", "info"),
		ReadHeaderTimeout: EnvDuration(envPrefix+"READ_HEADER_TIMEOUT", 5*time.Second),
		ShutdownTimeout:   EnvDuration(envPrefix+"SHUTDOWN_TIMEOUT", 10*time.Second),

		VaultCapacity:    EnvInt(envPrefix+"VAULT_CAPACITY", vault.DefaultCapacity),
		SessionMaxAge:    EnvDuration(envPrefix+"SESSION_MAX_AGE", session.DefaultMaxAge),
		SweepInterval:    EnvDuration(envPrefix+"SWEEP_INTERVAL", vault.DefaultSweepInterval),
		SweepStopTimeout: EnvDuration(envPrefix+"SWEEP_STOP_TIMEOUT", 5*time.Second),

		Curve:       EnvString(envPrefix+"CURVE", string(crypto.CurveP256)),
		CipherSuite: EnvString(envPrefix+"CIPHER_SUITE", string(session.SuiteAES256GCM)),

		JWTSecret: os.Getenv(envPrefix + "JWT_SECRET"),

		RedisURL:  EnvString(envPrefix+"REDIS_URL", ""),
		RecordDir: EnvString(envPrefix+"RECORD_DIR", ""),
		RecordTTL: EnvDuration(envPrefix+"RECORD_TTL", 720*time.Hour),

		CreateRate:  EnvFloat(envPrefix+"CREATE_RATE", 50),
		CreateBurst: EnvInt(envPrefix+"CREATE_BURST", 100),
	}
	return cfg, cfg.Validate()
}

func loadDotenv() error {
	if file := os.Getenv(envPrefix + "ENV_FILE"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
		return nil
	}
	_ = godotenv.Load()
	return nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: http address is required")
	}
	if c.VaultCapacity <= 0 {
		return errors.New("config: vault capacity must be positive")
	}
	if c.SessionMaxAge <= 0 || c.SweepInterval <= 0 {
		return errors.New("config: session max age and sweep interval must be positive")
	}
	if _, err := crypto.ParseCurve(c.Curve); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := session.ParseSuite(c.CipherSuite); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("config: jwt secret must be at least 32 bytes")
	}
	if c.RedisURL != "" && c.RecordDir != "" {
		return errors.New("config: set only one of redis url and record dir")
	}
	return nil
}
