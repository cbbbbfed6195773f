package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/linkstash/internal/logger"
)

const (
	defaultListenAddr        = "localhost:8000"
	defaultLoggingLevel      = logger.LevelInfo
	defaultEnvironment       = logger.EnvProduction
	defaultSessionTTL        = 2 * time.Hour
	defaultRememberMeTTL     = 30 * 24 * time.Hour
	defaultTotpWindow        = 1
	defaultMinPasswordLength = 12
	defaultUsernameThreshold = 5
	defaultIPThreshold       = 20
	defaultWindowMinutes     = 10
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the linkstash service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Signs bearer tokens, must be at least 32 bytes
	SecretKey string

	// Environment
	Environment string

	// Per class token lifetimes
	SessionTTL    time.Duration
	RememberMeTTL time.Duration

	// TOTP tolerance in 30 second steps either side of now
	TotpWindow int

	// Minimum password length enforced before hashing
	MinPasswordLength int

	// Login rate limit knobs
	UsernameThreshold int
	IPThreshold       int
	WindowMinutes     int

	// Whether X-Forwarded-For may be trusted for client ip resolution
	TrustProxy bool
}

func NewConfig() *Config {
	return &Config{
		LogLevel:          defaultLoggingLevel,
		ListenAddr:        defaultListenAddr,
		Environment:       defaultEnvironment,
		SessionTTL:        defaultSessionTTL,
		RememberMeTTL:     defaultRememberMeTTL,
		TotpWindow:        defaultTotpWindow,
		MinPasswordLength: defaultMinPasswordLength,
		UsernameThreshold: defaultUsernameThreshold,
		IPThreshold:       defaultIPThreshold,
		WindowMinutes:     defaultWindowMinutes,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}
	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseBool(value); err == nil {
				*o = parsed
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if parsed, err := time.ParseDuration(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":         setString(&c.ListenAddr),
		"DATABASE_URI":        setString(&c.DatabaseDSN),
		"SECRET_KEY":          setString(&c.SecretKey),
		"LOG_LEVEL":           setString(&c.LogLevel),
		"ENVIRONMENT":         setString(&c.Environment),
		"SESSION_TTL":         setDuration(&c.SessionTTL),
		"REMEMBER_ME_TTL":     setDuration(&c.RememberMeTTL),
		"TOTP_WINDOW":         setInt(&c.TotpWindow),
		"MIN_PASSWORD_LENGTH": setInt(&c.MinPasswordLength),
		"USERNAME_THRESHOLD":  setInt(&c.UsernameThreshold),
		"IP_THRESHOLD":        setInt(&c.IPThreshold),
		"WINDOW_MINUTES":      setInt(&c.WindowMinutes),
		"TRUST_PROXY":         setBool(&c.TrustProxy),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("linkstash", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Session token lifetime")
	fs.DurationVar(&c.RememberMeTTL, "remember-ttl", c.RememberMeTTL, "Remember-me token lifetime")
	fs.IntVar(&c.TotpWindow, "totp-window", c.TotpWindow, "TOTP tolerance in 30s steps")
	fs.IntVar(&c.MinPasswordLength, "min-password-length", c.MinPasswordLength, "Minimum password length")
	fs.IntVar(&c.UsernameThreshold, "username-threshold", c.UsernameThreshold, "Login failures per username before blocking")
	fs.IntVar(&c.IPThreshold, "ip-threshold", c.IPThreshold, "Login failures per ip before blocking")
	fs.IntVar(&c.WindowMinutes, "window-minutes", c.WindowMinutes, "Login rate limit window in minutes")
	fs.BoolVar(&c.TrustProxy, "trust-proxy", c.TrustProxy, "Trust X-Forwarded-For for client ip")

	return fs.Parse(args)
}
