package gap

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dgnsrekt/mdfeed/internal/metrics"
)

const subsystem = "gap"

const (
	roleIncremental = "incremental"
	roleSecondary   = "secondary"
	roleSnapshot    = "snapshot"

	outcomeReplayed = "replayed"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var (
	gapsDetected = metrics.NewCounter(
		"gaps_total",
		subsystem,
		"Number of sequence gaps beyond the configured threshold",
		[]string{"channel"},
	)
	stalePackets = metrics.NewCounter(
		"stale_packets_total",
		subsystem,
		"Number of incremental packets dropped as already processed",
		[]string{"channel"},
	)
	appliedPackets = metrics.NewCounter(
		"applied_packets_total",
		subsystem,
		"Number of packets forwarded to appliers by role",
		[]string{"channel", "role"},
	)
	bufferRejects = metrics.NewCounter(
		"buffer_rejects_total",
		subsystem,
		"Number of packets not buffered",
		[]string{"channel", "reason"},
	)
	bufferedPackets = metrics.NewGauge(
		"buffered_packets",
		subsystem,
		"Number of incremental packets waiting in the buffer",
		[]string{"channel"},
	)
	channelState = metrics.NewGauge(
		"state",
		subsystem,
		"Current channel state (1 for the active state)",
		[]string{"channel", "state"},
	)
	retransmissions = metrics.NewCounter(
		"retransmissions_total",
		subsystem,
		"Number of retransmission requests by outcome",
		[]string{"channel", "outcome"},
	)
	retransmissionDuration = metrics.NewHistogramWithBuckets(
		"retransmission_duration_seconds",
		subsystem,
		"Duration of retransmission requests",
		[]string{"channel"},
		prometheus.ExponentialBuckets(0.005, 2, 12),
	)
	snapshotResyncs = metrics.NewCounter(
		"snapshot_resyncs_total",
		subsystem,
		"Number of times a completed snapshot loop brought the channel in sync",
		[]string{"channel"},
	)
	recoveryStarts = metrics.NewCounter(
		"recovery_starts_total",
		subsystem,
		"Number of times snapshot recovery was started",
		[]string{"channel"},
	)
)

// channelMetrics caches the label-bound series for one channel.
type channelMetrics struct {
	channel     string
	gaps        prometheus.Counter
	stale       prometheus.Counter
	incremental prometheus.Counter
	secondary   prometheus.Counter
	snapshot    prometheus.Counter
	buffered    prometheus.Gauge
	resyncs     prometheus.Counter
	recoveries  prometheus.Counter
	duration    prometheus.Observer
}

func newChannelMetrics(channel string) *channelMetrics {
	m := &channelMetrics{
		channel:     channel,
		gaps:        gapsDetected.WithLabelValues(channel),
		stale:       stalePackets.WithLabelValues(channel),
		incremental: appliedPackets.WithLabelValues(channel, roleIncremental),
		secondary:   appliedPackets.WithLabelValues(channel, roleSecondary),
		snapshot:    appliedPackets.WithLabelValues(channel, roleSnapshot),
		buffered:    bufferedPackets.WithLabelValues(channel),
		resyncs:     snapshotResyncs.WithLabelValues(channel),
		recoveries:  recoveryStarts.WithLabelValues(channel),
		duration:    retransmissionDuration.WithLabelValues(channel),
	}
	m.setState(Initial)
	return m
}

func (m *channelMetrics) setState(s State) {
	for _, st := range AllStates {
		v := 0.0
		if st == s {
			v = 1
		}
		channelState.WithLabelValues(m.channel, st.String()).Set(v)
	}
}

func (m *channelMetrics) bufferReject(reason string) {
	bufferRejects.WithLabelValues(m.channel, reason).Inc()
}

func (m *channelMetrics) retransmission(outcome string) {
	retransmissions.WithLabelValues(m.channel, outcome).Inc()
}
