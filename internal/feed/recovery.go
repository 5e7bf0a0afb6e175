package feed

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// SnapshotGate implements gap.SnapshotRecovery for the snapshot receivers
// of one channel. Snapshot datagrams are read continuously and discarded
// while recovery is not active.
type SnapshotGate struct {
	active  atomic.Bool
	handler func(mdp.FeedContext, *mdp.Packet)
	logger  *zap.Logger

	starts atomic.Uint64
}

func NewSnapshotGate(logger *zap.Logger) *SnapshotGate {
	return &SnapshotGate{logger: logger}
}

// bind sets the destination of admitted packets. It must be called before
// any receiver delivers to the gate.
func (g *SnapshotGate) bind(handler func(mdp.FeedContext, *mdp.Packet)) {
	g.handler = handler
}

func (g *SnapshotGate) StartRecovery() {
	if g.active.CompareAndSwap(false, true) {
		g.starts.Add(1)
		g.logger.Info("snapshot recovery started")
	}
}

func (g *SnapshotGate) StopRecovery() {
	if g.active.CompareAndSwap(true, false) {
		g.logger.Info("snapshot recovery stopped")
	}
}

// Active reports whether snapshot packets are being admitted.
func (g *SnapshotGate) Active() bool { return g.active.Load() }

// Starts is the number of times recovery was started.
func (g *SnapshotGate) Starts() uint64 { return g.starts.Load() }

// Handle admits p while recovery is active.
func (g *SnapshotGate) Handle(fc mdp.FeedContext, p *mdp.Packet) {
	if !g.active.Load() {
		return
	}
	g.handler(fc, p)
}
