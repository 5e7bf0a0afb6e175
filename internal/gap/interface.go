package gap

import (
	"context"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

//go:generate mockgen -package=mocks -destination=./mocks/mocks.go -source=./interface.go -exclude_interfaces=Applier,PacketListener,Executor,CycleTracker

// Applier receives packets once the controller has put them in order.
type Applier interface {
	HandleIncrementalPacket(fc mdp.FeedContext, p *mdp.Packet)
	HandleSnapshotPacket(fc mdp.FeedContext, p *mdp.Packet)
}

// PacketListener is handed to a Requester to receive replayed packets.
type PacketListener interface {
	OnPacket(fc mdp.FeedContext, p *mdp.Packet)
}

// Requester asks a replay service for the packets in [begin, end] and feeds
// them to l one at a time. It returns true only if the whole range was
// replayed.
type Requester interface {
	AskForLostMessages(ctx context.Context, begin, end uint64, l PacketListener) (bool, error)
}

// SnapshotRecovery starts and stops consumption of the snapshot loop.
type SnapshotRecovery interface {
	StartRecovery()
	StopRecovery()
}

// StateListener observes channel state transitions. Implementations are
// called with the channel lock held and must not call back into the
// controller.
type StateListener interface {
	OnChannelStateChanged(channelID string, prev, next State)
}

// StateListenerFunc adapts a function to StateListener.
type StateListenerFunc func(channelID string, prev, next State)

func (f StateListenerFunc) OnChannelStateChanged(channelID string, prev, next State) {
	f(channelID, prev, next)
}

// Executor runs retransmission tasks off the feed goroutines. Submit must
// not block and must not run the task on the caller's goroutine.
type Executor interface {
	Submit(task func()) error
}

// CycleTracker accumulates snapshot chunk coverage for one loop.
type CycleTracker interface {
	Reset()
	Update(totalReports, lastSeq uint64, securityID int32, chunks, currentChunk uint64) bool
	SmallestSnapshotSequence() (uint64, bool)
	HighestSnapshotSequence() (uint64, bool)
}
