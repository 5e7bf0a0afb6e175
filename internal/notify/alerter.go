package notify

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/gap"
)

const alertQueueSize = 64

// Alerter turns channel state transitions into notifications. Transitions
// are queued from the channel goroutines and sent from Run.
type Alerter struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan StateChange
	clock    clockwork.Clock

	// owned by Run
	lostAt map[string]time.Time
}

func NewAlerter(n Notifier, logger *zap.Logger) *Alerter {
	return newAlerter(n, logger, clockwork.NewRealClock())
}

func newAlerter(n Notifier, logger *zap.Logger, clock clockwork.Clock) *Alerter {
	return &Alerter{
		notifier: n,
		logger:   logger,
		queue:    make(chan StateChange, alertQueueSize),
		clock:    clock,
		lostAt:   make(map[string]time.Time),
	}
}

// OnChannelStateChanged queues transitions into and out of OUTOFSYNC.
func (a *Alerter) OnChannelStateChanged(channelID string, prev, next gap.State) {
	if next != gap.OutOfSync && prev != gap.OutOfSync {
		return
	}
	ev := StateChange{Channel: channelID, From: prev, To: next, At: a.clock.Now()}
	select {
	case a.queue <- ev:
	default:
		a.logger.Warn("alert dropped, queue full",
			zap.String("channel", channelID),
			zap.Stringer("state", next),
		)
	}
}

// Run sends queued alerts until ctx is cancelled.
func (a *Alerter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.queue:
			a.dispatch(ctx, ev)
		}
	}
}

func (a *Alerter) dispatch(ctx context.Context, ev StateChange) {
	var err error
	switch {
	case ev.To == gap.OutOfSync:
		a.lostAt[ev.Channel] = ev.At
		err = a.notifier.SendOutOfSync(ctx, ev)
	case ev.To == gap.Sync:
		if lost, ok := a.lostAt[ev.Channel]; ok {
			ev.OutOfSyncFor = ev.At.Sub(lost)
		}
		delete(a.lostAt, ev.Channel)
		err = a.notifier.SendRecovered(ctx, ev)
	default:
		// Leaving OUTOFSYNC for shutdown is not worth an alert.
		delete(a.lostAt, ev.Channel)
	}
	if err != nil {
		a.logger.Warn("alert not delivered", zap.String("channel", ev.Channel), zap.Error(err))
	}
}

var _ gap.StateListener = (*Alerter)(nil)
