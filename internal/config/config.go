// Package config loads runtime settings from the environment and initializes
// logging for the CLI entrypoints.
package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the settings shared by every entrypoint. Values come from
// environment variables with the prefix "MFC_", except the API URL which
// keeps its historical unprefixed name.
type Config struct {
	APIURL   string `envconfig:"-"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	StateDir string `envconfig:"STATE_DIR"`
}

const defaultAPIURL = "http://localhost:5000"

// Load reads the environment. It never fails on a missing variable, only on
// a malformed one.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("MFC", &c); err != nil {
		return Config{}, err
	}
	c.APIURL = os.Getenv("CALENDAR_API_URL")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.StateDir = filepath.Join(home, ".mfcal")
		}
	}
	return c, nil
}

// SessionPath is where the persisted session lives, or "" when there is no
// usable state directory.
func (c Config) SessionPath() string {
	if c.StateDir == "" {
		return ""
	}
	return filepath.Join(c.StateDir, "session.json")
}

// InitLogger configures the global zerolog logger for terminal output.
func InitLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	SetLogLevel(level)
}

// SetLogLevel parses and applies a level name, defaulting to info.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
