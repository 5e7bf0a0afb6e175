package gap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// replayListener feeds replayed packets back through the normal incremental
// path, where they are buffered while the channel is out of sync.
type replayListener struct {
	c *Controller
}

func (l replayListener) OnPacket(_ mdp.FeedContext, p *mdp.Packet) {
	l.c.HandleIncrementalPacket(mdp.FeedContext{Feed: mdp.FeedA, Type: mdp.FeedReplay}, p)
}

// retransmission asks the replay service for [begin, end]. It runs on an
// executor goroutine and never holds the channel lock while the request is
// in flight.
type retransmission struct {
	c       *Controller
	begin   uint64
	end     uint64
	attempt int
}

func (r *retransmission) run() {
	c := r.c
	logger := c.logger.With(
		zap.Uint64("begin", r.begin),
		zap.Uint64("end", r.end),
		zap.Int("attempt", r.attempt),
	)
	logger.Debug("requesting retransmission")

	start := time.Now()
	replayed, err := r.request()
	c.metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.retransmission(outcomeError)
		logger.Error("retransmission failed", zap.Error(err))
		return
	}
	if replayed {
		c.metrics.retransmission(outcomeReplayed)
		logger.Info("retransmission complete")
	} else {
		c.metrics.retransmission(outcomeRejected)
		logger.Warn("retransmission incomplete, falling back to snapshot")
	}
	c.onRetransmissionDone(replayed)
}

func (r *retransmission) request() (replayed bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			replayed = false
			err = fmt.Errorf("retransmission panicked: %v", rec)
		}
	}()

	ctx := context.Background()
	if timeout := r.c.cfg.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.c.requester.AskForLostMessages(ctx, r.begin, r.end, replayListener{c: r.c})
}
