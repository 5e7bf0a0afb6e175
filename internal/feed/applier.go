package feed

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/mdp"
	"github.com/dgnsrekt/mdfeed/internal/replay"
)

// Counts summarizes what an Applier has seen.
type Counts struct {
	Incremental uint64 `json:"incremental"`
	Snapshot    uint64 `json:"snapshot"`
	Messages    uint64 `json:"messages"`
	LastSeqNum  uint64 `json:"last_seq_num"`
	// Violations counts incremental packets at or below the previous one.
	Violations uint64 `json:"violations"`
	// Jumps counts forward skips, expected after a snapshot resync.
	Jumps uint64 `json:"jumps"`
}

// Applier is the end of the ordered stream for one role. It keeps counters,
// optionally retains incrementals for re-serving replay requests and
// forwards everything to next when set.
type Applier struct {
	channel string
	role    string
	next    gap.Applier
	history *replay.MemoryStore
	logger  *zap.Logger

	incremental atomic.Uint64
	snapshot    atomic.Uint64
	messages    atomic.Uint64
	lastSeq     atomic.Uint64
	violations  atomic.Uint64
	jumps       atomic.Uint64
}

// NewApplier creates an applier. next and history may be nil.
func NewApplier(channel, role string, next gap.Applier, history *replay.MemoryStore, logger *zap.Logger) *Applier {
	return &Applier{
		channel: channel,
		role:    role,
		next:    next,
		history: history,
		logger:  logger.With(zap.String("channel", channel), zap.String("role", role)),
	}
}

func (a *Applier) HandleIncrementalPacket(fc mdp.FeedContext, p *mdp.Packet) {
	last := a.lastSeq.Swap(p.SeqNum)
	switch {
	case last == 0:
	case p.SeqNum <= last:
		a.violations.Add(1)
		a.logger.Warn("out of order packet", zap.Uint64("seq", p.SeqNum), zap.Uint64("previous", last))
	case p.SeqNum > last+1:
		a.jumps.Add(1)
	}
	a.incremental.Add(1)
	a.messages.Add(uint64(len(p.Messages)))
	if a.history != nil {
		a.history.Add(a.channel, p)
	}
	if a.next != nil {
		a.next.HandleIncrementalPacket(fc, p)
	}
}

func (a *Applier) HandleSnapshotPacket(fc mdp.FeedContext, p *mdp.Packet) {
	a.snapshot.Add(1)
	a.messages.Add(uint64(len(p.Messages)))
	if a.next != nil {
		a.next.HandleSnapshotPacket(fc, p)
	}
}

// Counts returns the current counters.
func (a *Applier) Counts() Counts {
	return Counts{
		Incremental: a.incremental.Load(),
		Snapshot:    a.snapshot.Load(),
		Messages:    a.messages.Load(),
		LastSeqNum:  a.lastSeq.Load(),
		Violations:  a.violations.Load(),
		Jumps:       a.jumps.Load(),
	}
}

var _ gap.Applier = (*Applier)(nil)
