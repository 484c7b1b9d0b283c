package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// First-pick pools for the opponent's first flip of a turn.
const (
	PoolUnseen  = "unseen"
	PoolEnabled = "enabled"
)

// Config holds all configurable parameters of the server and the game engine.
type Config struct {
	RevealDelayMS   int    `json:"reveal_delay_ms" yaml:"reveal_delay_ms"`
	GameOverDelayMS int    `json:"game_over_delay_ms" yaml:"game_over_delay_ms"`
	FirstPickPool   string `json:"first_pick_pool" yaml:"first_pick_pool"` // "unseen" or "enabled"
	PlayerName      string `json:"player_name" yaml:"player_name"`
	OpponentName    string `json:"opponent_name" yaml:"opponent_name"`

	WSPort          int    `json:"ws_port" yaml:"ws_port"`
	DatabaseURL     string `json:"database_url" yaml:"database_url"`
	NatsURL         string `json:"nats_url" yaml:"nats_url"`
	NatsSubject     string `json:"nats_subject" yaml:"nats_subject"`
	NeonAuthBaseURL string `json:"neon_auth_base_url" yaml:"neon_auth_base_url"`
	LogLevel        string `json:"log_level" yaml:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		RevealDelayMS:   2000,
		GameOverDelayMS: 1500,
		FirstPickPool:   PoolUnseen,
		PlayerName:      "You",
		OpponentName:    "Mnemosyne",
		WSPort:          8080,
		NatsSubject:     "pairs",
		LogLevel:        "info",
	}
}

// RevealDelay is the pause before a face-up pair is evaluated and between opponent flips.
func (c *Config) RevealDelay() time.Duration {
	return time.Duration(c.RevealDelayMS) * time.Millisecond
}

// GameOverDelay is the pause between the last match and the session end signal.
func (c *Config) GameOverDelay() time.Duration {
	return time.Duration(c.GameOverDelayMS) * time.Millisecond
}

// Load reads configuration from an optional config.json or config.yaml file
// in the working directory, then applies environment variable overrides.
// Fields not set in either source retain their default values.
func Load() *Config {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for the config files.
func LoadFrom(dir string) *Config {
	cfg := Defaults()

	if f, err := os.Open(dir + "/config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	} else if data, err := os.ReadFile(dir + "/config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("Warning: failed to parse config.yaml: %v", err)
		}
	}

	overrideInt(&cfg.RevealDelayMS, "REVEAL_DELAY_MS")
	overrideInt(&cfg.GameOverDelayMS, "GAME_OVER_DELAY_MS")
	overrideString(&cfg.FirstPickPool, "FIRST_PICK_POOL")
	overrideString(&cfg.PlayerName, "PLAYER_NAME")
	overrideString(&cfg.OpponentName, "OPPONENT_NAME")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.NatsURL, "NATS_URL")
	overrideString(&cfg.NatsSubject, "NATS_SUBJECT")
	overrideString(&cfg.NeonAuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	cfg.normalize()
	return cfg
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := Defaults()
	if c.RevealDelayMS <= 0 {
		log.Printf("Warning: reveal_delay_ms must be positive, got %d; using %d", c.RevealDelayMS, def.RevealDelayMS)
		c.RevealDelayMS = def.RevealDelayMS
	}
	if c.GameOverDelayMS <= 0 {
		log.Printf("Warning: game_over_delay_ms must be positive, got %d; using %d", c.GameOverDelayMS, def.GameOverDelayMS)
		c.GameOverDelayMS = def.GameOverDelayMS
	}
	c.FirstPickPool = strings.ToLower(strings.TrimSpace(c.FirstPickPool))
	if c.FirstPickPool != PoolUnseen && c.FirstPickPool != PoolEnabled {
		log.Printf("Warning: unknown first_pick_pool %q; using %q", c.FirstPickPool, PoolUnseen)
		c.FirstPickPool = PoolUnseen
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
