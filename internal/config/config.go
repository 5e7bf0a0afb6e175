package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/mdfeed/internal/feed"
	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/replay"
	"github.com/dgnsrekt/mdfeed/internal/transport"
)

// Config holds all application configuration
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Workers      WorkersConfig      `mapstructure:"workers"`
	Session      SessionConfig      `mapstructure:"session"`
	Capture      CaptureConfig      `mapstructure:"capture"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	ReplayServer ReplayServerConfig `mapstructure:"replay_server"`
	History      HistoryConfig      `mapstructure:"history"`
	Channels     []ChannelConfig    `mapstructure:"channels"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

// AdminConfig holds the admin HTTP server settings
type AdminConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	WSEnabled bool   `mapstructure:"ws_enabled"`
}

// WorkersConfig sizes the retransmission worker pool
type WorkersConfig struct {
	Count     int `mapstructure:"count"`
	QueueSize int `mapstructure:"queue_size"`
}

// SessionConfig restricts running to exchange trading hours
type SessionConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Timezone         string `mapstructure:"timezone"`
	Open             string `mapstructure:"open"`
	Close            string `mapstructure:"close"`
	CheckIntervalSec int    `mapstructure:"check_interval_sec"`
}

// CaptureConfig holds raw packet capture settings
type CaptureConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// NotifyConfig holds ntfy alert settings
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Topic    string `mapstructure:"topic"`
	Priority string `mapstructure:"priority"`
	Tags     string `mapstructure:"tags"`
	Token    string `mapstructure:"token"`
}

// ReplayServerConfig holds the settings of the built-in replay server that
// serves recently applied packets to other consumers.
type ReplayServerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	MaxWindow uint64 `mapstructure:"max_window"`
}

// HistoryConfig sizes the in-memory history of applied packets
type HistoryConfig struct {
	Depth uint64 `mapstructure:"depth"`
}

// LinesConfig names the A and B lines of one feed
type LinesConfig struct {
	A         string `mapstructure:"a"`
	B         string `mapstructure:"b"`
	Interface string `mapstructure:"interface"`
}

// ReplayConfig holds the TCP replay settings of one channel
type ReplayConfig struct {
	Addr          string `mapstructure:"addr"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	Burst         int    `mapstructure:"burst"`
	DialRetries   uint   `mapstructure:"dial_retries"`
}

// ChaosConfig impairs inbound datagrams for recovery drills
type ChaosConfig struct {
	Loss       float64 `mapstructure:"loss"`
	Dup        float64 `mapstructure:"dup"`
	Reorder    float64 `mapstructure:"reorder"`
	MaxDelayMs int     `mapstructure:"max_delay_ms"`
	Seed       int64   `mapstructure:"seed"`
}

// ChannelConfig holds the settings of one channel
type ChannelConfig struct {
	ID             string `mapstructure:"id"`
	GapThreshold   uint64 `mapstructure:"gap_threshold"`
	MaxAttempts    *int   `mapstructure:"max_attempts"`
	MaxWindow      uint64 `mapstructure:"max_window"`
	BufferCapacity int    `mapstructure:"buffer_capacity"`
	// RequestTimeoutSec bounds a single retransmission request. Zero
	// disables the timeout.
	RequestTimeoutSec int          `mapstructure:"request_timeout_sec"`
	Incremental       LinesConfig  `mapstructure:"incremental"`
	Snapshot          LinesConfig  `mapstructure:"snapshot"`
	Replay            ReplayConfig `mapstructure:"replay"`
	Chaos             ChaosConfig  `mapstructure:"chaos"`
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.addr", ":8080")
	v.SetDefault("admin.ws_enabled", true)
	v.SetDefault("workers.count", 2)
	v.SetDefault("workers.queue_size", 64)
	v.SetDefault("session.enabled", false)
	v.SetDefault("session.timezone", "America/Chicago")
	v.SetDefault("session.open", "08:30")
	v.SetDefault("session.close", "15:15")
	v.SetDefault("session.check_interval_sec", 30)
	v.SetDefault("capture.enabled", false)
	v.SetDefault("capture.directory", "data/capture")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_downwards_trend")
	v.SetDefault("replay_server.enabled", false)
	v.SetDefault("replay_server.addr", ":9100")
	v.SetDefault("replay_server.max_window", gap.DefaultMaxWindow)
	v.SetDefault("history.depth", 100000)

	// Environment variable binding
	v.SetEnvPrefix("MDFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.applyChannelDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// List entries cannot carry viper defaults, so channels get theirs here.
func (c *Config) applyChannelDefaults() {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.MaxAttempts == nil {
			n := gap.DefaultMaxAttempts
			ch.MaxAttempts = &n
		}
		if ch.MaxWindow == 0 {
			ch.MaxWindow = gap.DefaultMaxWindow
		}
		if ch.BufferCapacity == 0 {
			ch.BufferCapacity = gap.DefaultBufferCapacity
		}
		if ch.Replay.Addr != "" && ch.Replay.TimeoutSec == 0 {
			ch.Replay.TimeoutSec = 5
		}
	}
}

// GapConfig converts the channel settings into controller settings
func (c ChannelConfig) GapConfig() gap.Config {
	cfg := gap.DefaultConfig(c.ID)
	cfg.GapThreshold = c.GapThreshold
	if c.MaxAttempts != nil {
		cfg.MaxAttempts = *c.MaxAttempts
	}
	if c.MaxWindow > 0 {
		cfg.MaxWindow = c.MaxWindow
	}
	if c.BufferCapacity > 0 {
		cfg.BufferCapacity = c.BufferCapacity
	}
	cfg.RequestTimeout = time.Duration(c.RequestTimeoutSec) * time.Second
	return cfg
}

// FeedConfig converts the channel settings into a runnable channel config
func (c ChannelConfig) FeedConfig() feed.ChannelConfig {
	gcfg := c.GapConfig()
	out := feed.ChannelConfig{
		Gap:         gcfg,
		Incremental: feed.Endpoints(c.Incremental),
		Snapshot:    feed.Endpoints(c.Snapshot),
		Chaos: transport.ChaosConfig{
			Loss:     c.Chaos.Loss,
			Dup:      c.Chaos.Dup,
			Reorder:  c.Chaos.Reorder,
			MaxDelay: time.Duration(c.Chaos.MaxDelayMs) * time.Millisecond,
			Seed:     c.Chaos.Seed,
		},
	}
	if c.Replay.Addr != "" {
		out.Replay = &replay.Config{
			Addr:          c.Replay.Addr,
			Channel:       c.ID,
			DialTimeout:   time.Duration(c.Replay.TimeoutSec) * time.Second,
			RatePerSecond: c.Replay.RatePerSecond,
			Burst:         c.Replay.Burst,
			DialRetries:   c.Replay.DialRetries,
			MaxWindow:     gcfg.MaxWindow,
		}
	}
	return out
}

// SessionInterval returns the session check interval
func (c SessionConfig) SessionInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}
