package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// ChannelProblem is one invalid setting of a channel
type ChannelProblem struct {
	Channel string
	Problem string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	General           []string
	DuplicateChannels []string
	ChannelProblems   []ChannelProblem
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.General) > 0 || len(e.DuplicateChannels) > 0 || len(e.ChannelProblems) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.General) > 0 {
		sb.WriteString("\nInvalid settings:\n")
		for _, g := range e.General {
			sb.WriteString(fmt.Sprintf("  - %s\n", g))
		}
	}

	if len(e.DuplicateChannels) > 0 {
		sb.WriteString("\nDuplicate channel ids:\n")
		for _, id := range e.DuplicateChannels {
			sb.WriteString(fmt.Sprintf("  - %s\n", id))
		}
	}

	if len(e.ChannelProblems) > 0 {
		sb.WriteString("\nInvalid channel settings:\n")
		for _, p := range e.ChannelProblems {
			sb.WriteString(fmt.Sprintf("  - channel %s: %s\n", p.Channel, p.Problem))
		}
	}

	return sb.String()
}

var validPriorities = map[string]bool{
	"min": true, "low": true, "default": true, "high": true, "urgent": true,
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs.General = append(errs.General, fmt.Sprintf("logging.level %q is not a log level", c.Logging.Level))
	}
	if c.Admin.Enabled && c.Admin.Addr == "" {
		errs.General = append(errs.General, "admin.addr is required when admin is enabled")
	}
	if c.Workers.Count < 1 {
		errs.General = append(errs.General, "workers.count must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		errs.General = append(errs.General, "workers.queue_size must be at least 1")
	}
	if c.Session.Enabled {
		validateSession(errs, c.Session)
	}
	if c.Capture.Enabled && c.Capture.Directory == "" {
		errs.General = append(errs.General, "capture.directory is required when capture is enabled")
	}
	if c.Notify.Enabled {
		if c.Notify.Topic == "" {
			errs.General = append(errs.General, "notify.topic is required when notify is enabled")
		}
		if !validPriorities[c.Notify.Priority] {
			errs.General = append(errs.General,
				fmt.Sprintf("notify.priority %q is invalid (valid: min, low, default, high, urgent)", c.Notify.Priority))
		}
	}
	if c.ReplayServer.Enabled && c.ReplayServer.Addr == "" {
		errs.General = append(errs.General, "replay_server.addr is required when the replay server is enabled")
	}
	if len(c.Channels) == 0 {
		errs.General = append(errs.General, "at least one channel must be configured")
	}

	validateChannels(errs, c.Channels)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateSession(errs *ValidationErrors, s SessionConfig) {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		errs.General = append(errs.General, fmt.Sprintf("session.timezone %q: %v", s.Timezone, err))
	}
	open, errOpen := ParseClock(s.Open)
	if errOpen != nil {
		errs.General = append(errs.General, fmt.Sprintf("session.open: %v", errOpen))
	}
	closeAt, errClose := ParseClock(s.Close)
	if errClose != nil {
		errs.General = append(errs.General, fmt.Sprintf("session.close: %v", errClose))
	}
	if errOpen == nil && errClose == nil && closeAt <= open {
		errs.General = append(errs.General, "session.close must be after session.open")
	}
	if s.CheckIntervalSec < 1 {
		errs.General = append(errs.General, "session.check_interval_sec must be at least 1")
	}
}

func validateChannels(errs *ValidationErrors, channels []ChannelConfig) {
	seen := make(map[string]int)
	for i, ch := range channels {
		name := ch.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			errs.ChannelProblems = append(errs.ChannelProblems, ChannelProblem{name, "id is required"})
		} else {
			seen[ch.ID]++
		}

		add := func(problem string) {
			errs.ChannelProblems = append(errs.ChannelProblems, ChannelProblem{name, problem})
		}
		if ch.Incremental.A == "" && ch.Incremental.B == "" {
			add("at least one incremental line is required")
		}
		if ch.Snapshot.A == "" && ch.Snapshot.B == "" {
			add("at least one snapshot line is required")
		}
		if ch.MaxAttempts != nil && *ch.MaxAttempts < 0 {
			add("max_attempts must not be negative")
		}
		if ch.BufferCapacity < 0 {
			add("buffer_capacity must not be negative")
		}
		if ch.RequestTimeoutSec < 0 {
			add("request_timeout_sec must not be negative")
		}
		if ch.Replay.Addr != "" && ch.Replay.RatePerSecond < 0 {
			add("replay.rate_per_second must not be negative")
		}
		for _, p := range []struct {
			key string
			val float64
		}{{"chaos.loss", ch.Chaos.Loss}, {"chaos.dup", ch.Chaos.Dup}, {"chaos.reorder", ch.Chaos.Reorder}} {
			if p.val < 0 || p.val > 1 {
				add(fmt.Sprintf("%s must be within [0, 1]", p.key))
			}
		}
	}

	for id, n := range seen {
		if n > 1 {
			errs.DuplicateChannels = append(errs.DuplicateChannels, id)
		}
	}
	sort.Strings(errs.DuplicateChannels)
}

// ParseClock parses a wall-clock time of day such as "08:30" into the
// offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
