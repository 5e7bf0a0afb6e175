package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/mdfeed/internal/gap"
)

// StateChange is one channel transition worth alerting on.
type StateChange struct {
	Channel string
	From    gap.State
	To      gap.State
	At      time.Time
	// OutOfSyncFor is set when a channel resynchronizes.
	OutOfSyncFor time.Duration
}

// FormatOutOfSyncMessage creates the body of a lost-sync alert.
func FormatOutOfSyncMessage(ev StateChange) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Channel: %s\n", ev.Channel))
	sb.WriteString(fmt.Sprintf("Transition: %s -> %s\n", ev.From, ev.To))
	sb.WriteString(fmt.Sprintf("At: %s", ev.At.UTC().Format(time.RFC3339)))

	return sb.String()
}

// FormatRecoveredMessage creates the body of a resync notice.
func FormatRecoveredMessage(ev StateChange) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Channel: %s\n", ev.Channel))
	sb.WriteString(fmt.Sprintf("At: %s", ev.At.UTC().Format(time.RFC3339)))
	if ev.OutOfSyncFor > 0 {
		sb.WriteString(fmt.Sprintf("\nOut of sync for: %s", ev.OutOfSyncFor.Round(time.Millisecond)))
	}

	return sb.String()
}
