package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
	"github.com/dgnsrekt/mdfeed/internal/metrics"
)

var (
	datagramsReceived = metrics.NewCounter(
		"datagrams_total",
		"transport",
		"Number of datagrams received per feed",
		[]string{"feed"},
	)
	datagramsMalformed = metrics.NewCounter(
		"malformed_datagrams_total",
		"transport",
		"Number of datagrams that failed to decode",
		[]string{"feed"},
	)
)

// Handler consumes decoded packets.
type Handler func(fc mdp.FeedContext, p *mdp.Packet)

// Tap observes raw datagrams before decoding.
type Tap func(fc mdp.FeedContext, raw []byte)

// Receiver reads one feed and hands every decoded packet to a Handler.
type Receiver struct {
	ep      Endpoint
	fc      mdp.FeedContext
	handler Handler
	tap     Tap
	logger  *zap.Logger
}

func NewReceiver(ep Endpoint, fc mdp.FeedContext, handler Handler, logger *zap.Logger) *Receiver {
	return &Receiver{
		ep:      ep,
		fc:      fc,
		handler: handler,
		logger:  logger.With(zap.Stringer("feed", fc)),
	}
}

// SetTap installs t. It must be called before Run.
func (r *Receiver) SetTap(t Tap) { r.tap = t }

// Run reads until ctx is done or the endpoint is closed.
func (r *Receiver) Run(ctx context.Context) error {
	received := datagramsReceived.WithLabelValues(r.fc.String())
	malformed := datagramsMalformed.WithLabelValues(r.fc.String())

	r.logger.Debug("receiver started")
	defer r.logger.Debug("receiver stopped")
	for {
		raw, ok := r.ep.Recv(ctx)
		if !ok {
			return nil
		}
		received.Inc()
		if r.tap != nil {
			r.tap(r.fc, raw)
		}

		p, err := mdp.DecodePacket(raw)
		if err != nil {
			malformed.Inc()
			r.logger.Debug("dropping malformed datagram", zap.Int("bytes", len(raw)), zap.Error(err))
			continue
		}
		r.handler(r.fc, p)
	}
}
