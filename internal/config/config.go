package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// AutoMessageMode selects how file-activity messages are emitted.
// Exactly one mode is active for the whole process lifetime.
type AutoMessageMode string

const (
	AutoMessageImmediate AutoMessageMode = "immediate"
	AutoMessageDigest    AutoMessageMode = "digest"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Chat ChatConfig `yaml:"chat"`
}

// ChatConfig carries every tunable of the chat engine.
type ChatConfig struct {
	MaxMessageLength int             `yaml:"max_message_length"` // Unicode code points
	EditWindow       time.Duration   `yaml:"edit_window"`
	RateLimit        int             `yaml:"rate_limit"`
	RateWindow       time.Duration   `yaml:"rate_window"`
	PushDuration     time.Duration   `yaml:"push_duration"`  // hard ceiling per SSE connection
	PushTick         time.Duration   `yaml:"push_tick"`      // delta query interval inside the loop
	PushKeepalive    time.Duration   `yaml:"push_keepalive"` // keep-alive comment interval
	MaxPushConns     int             `yaml:"max_push_conns"` // concurrent SSE connections per process
	TypingFreshness  time.Duration   `yaml:"typing_freshness"`
	TypingSweepAge   time.Duration   `yaml:"typing_sweep_age"`
	DedupWindow      time.Duration   `yaml:"dedup_window"`
	AutoMessageMode  AutoMessageMode `yaml:"auto_message_mode"`
	DigestInterval   time.Duration   `yaml:"digest_interval"`
	UnreadCacheTTL   time.Duration   `yaml:"unread_cache_ttl"`
	FetchLimit       int             `yaml:"fetch_limit"`
	EarlierLimit     int             `yaml:"earlier_limit"`
	HeartbeatFast    time.Duration   `yaml:"heartbeat_fast"` // suggested interval while chat is open
	HeartbeatSlow    time.Duration   `yaml:"heartbeat_slow"` // suggested interval while chat is closed
}

// UnmarshalYAML decodes the duration tunables from human-readable
// strings ("15m", "90s"); yaml.v2 has no native time.Duration support.
func (c *ChatConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		MaxMessageLength int             `yaml:"max_message_length"`
		EditWindow       string          `yaml:"edit_window"`
		RateLimit        int             `yaml:"rate_limit"`
		RateWindow       string          `yaml:"rate_window"`
		PushDuration     string          `yaml:"push_duration"`
		PushTick         string          `yaml:"push_tick"`
		PushKeepalive    string          `yaml:"push_keepalive"`
		MaxPushConns     int             `yaml:"max_push_conns"`
		TypingFreshness  string          `yaml:"typing_freshness"`
		TypingSweepAge   string          `yaml:"typing_sweep_age"`
		DedupWindow      string          `yaml:"dedup_window"`
		AutoMessageMode  AutoMessageMode `yaml:"auto_message_mode"`
		DigestInterval   string          `yaml:"digest_interval"`
		UnreadCacheTTL   string          `yaml:"unread_cache_ttl"`
		FetchLimit       int             `yaml:"fetch_limit"`
		EarlierLimit     int             `yaml:"earlier_limit"`
		HeartbeatFast    string          `yaml:"heartbeat_fast"`
		HeartbeatSlow    string          `yaml:"heartbeat_slow"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.MaxMessageLength = raw.MaxMessageLength
	c.RateLimit = raw.RateLimit
	c.MaxPushConns = raw.MaxPushConns
	c.AutoMessageMode = raw.AutoMessageMode
	c.FetchLimit = raw.FetchLimit
	c.EarlierLimit = raw.EarlierLimit

	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"edit_window", raw.EditWindow, &c.EditWindow},
		{"rate_window", raw.RateWindow, &c.RateWindow},
		{"push_duration", raw.PushDuration, &c.PushDuration},
		{"push_tick", raw.PushTick, &c.PushTick},
		{"push_keepalive", raw.PushKeepalive, &c.PushKeepalive},
		{"typing_freshness", raw.TypingFreshness, &c.TypingFreshness},
		{"typing_sweep_age", raw.TypingSweepAge, &c.TypingSweepAge},
		{"dedup_window", raw.DedupWindow, &c.DedupWindow},
		{"digest_interval", raw.DigestInterval, &c.DigestInterval},
		{"unread_cache_ttl", raw.UnreadCacheTTL, &c.UnreadCacheTTL},
		{"heartbeat_fast", raw.HeartbeatFast, &c.HeartbeatFast},
		{"heartbeat_slow", raw.HeartbeatSlow, &c.HeartbeatSlow},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("chat.%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

var AppConfig *Config

// LoadConfig reads config.yaml, or falls back to environment variables
// when DATABASE_URL is set (test mode, same convention the rest of the
// deployment tooling relies on).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyChatDefaults(&cfg.Chat)
		AppConfig = &cfg
		return
	}

	log.Println("Loading configuration from environment (test mode)")

	cfg.Database.DSN = dbURL
	cfg.Database.Driver = os.Getenv("DATABASE_DRIVER")
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")

	applyChatDefaults(&cfg.Chat)
	AppConfig = &cfg
}

// applyChatDefaults fills zero values with the documented defaults.
func applyChatDefaults(c *ChatConfig) {
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = 2000
	}
	if c.EditWindow == 0 {
		c.EditWindow = 15 * time.Minute
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10
	}
	if c.RateWindow == 0 {
		c.RateWindow = 60 * time.Second
	}
	if c.PushDuration == 0 {
		c.PushDuration = 30 * time.Second
	}
	if c.PushTick == 0 {
		c.PushTick = time.Second
	}
	if c.PushKeepalive == 0 {
		c.PushKeepalive = 10 * time.Second
	}
	if c.MaxPushConns == 0 {
		c.MaxPushConns = 256
	}
	if c.TypingFreshness == 0 {
		c.TypingFreshness = 5 * time.Second
	}
	if c.TypingSweepAge == 0 {
		c.TypingSweepAge = 60 * time.Second
	}
	if c.DedupWindow == 0 {
		c.DedupWindow = 5 * time.Minute
	}
	if c.AutoMessageMode == "" {
		c.AutoMessageMode = AutoMessageImmediate
	}
	if c.DigestInterval == 0 {
		c.DigestInterval = 10 * time.Minute
	}
	if c.UnreadCacheTTL == 0 {
		c.UnreadCacheTTL = 5 * time.Second
	}
	if c.FetchLimit == 0 {
		c.FetchLimit = 50
	}
	if c.EarlierLimit == 0 {
		c.EarlierLimit = 30
	}
	if c.HeartbeatFast == 0 {
		c.HeartbeatFast = 5 * time.Second
	}
	if c.HeartbeatSlow == 0 {
		c.HeartbeatSlow = 60 * time.Second
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
