// Package gap detects sequence gaps on an incremental market data channel and
// drives recovery through targeted retransmission or a snapshot resync.
package gap

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

const (
	DefaultMaxAttempts    = 3
	DefaultMaxWindow      = 2000
	DefaultBufferCapacity = 100000
)

// Config holds the per-channel recovery settings.
type Config struct {
	ChannelID string
	// GapThreshold is how far ahead of the expected sequence a packet may be
	// before the channel is declared out of sync. Zero reacts to any hole.
	GapThreshold uint64
	// MaxAttempts bounds retransmission requests between snapshot resyncs.
	MaxAttempts int
	// MaxWindow is the largest missing range worth asking the replay
	// service for.
	MaxWindow      uint64
	BufferCapacity int
	// RequestTimeout bounds one retransmission request. Zero means no limit.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default settings for channel id.
func DefaultConfig(id string) Config {
	return Config{
		ChannelID:      id,
		MaxAttempts:    DefaultMaxAttempts,
		MaxWindow:      DefaultMaxWindow,
		BufferCapacity: DefaultBufferCapacity,
	}
}

// Option configures optional collaborators of a Controller.
type Option func(*Controller)

// WithRequester enables targeted retransmission. Tasks are submitted to exec.
func WithRequester(r Requester, exec Executor) Option {
	return func(c *Controller) {
		c.requester = r
		c.executor = exec
	}
}

// WithListeners registers state listeners at construction time.
func WithListeners(ls ...StateListener) Option {
	return func(c *Controller) {
		c.listeners = append(c.listeners, ls...)
	}
}

// Status is a point-in-time view of a channel used by the admin API.
type Status struct {
	ChannelID                string `json:"channel_id"`
	State                    State  `json:"state"`
	LastProcessedSeqNum      uint64 `json:"last_processed_seq_num"`
	SmallestSnapshotSequence uint64 `json:"smallest_snapshot_sequence"`
	HighestSnapshotSequence  uint64 `json:"highest_snapshot_sequence"`
	Buffered                 int    `json:"buffered"`
	Attempts                 int    `json:"attempts"`
	ReceivingCycle           bool   `json:"receiving_cycle"`
}

// Controller is the gap state machine for a single channel. Its packet
// handlers are safe to call from several feed goroutines at once.
type Controller struct {
	cfg    Config
	logger *zap.Logger

	// target gets in-order incrementals and snapshot packets;
	// targetForBuffered gets the buffered packets that fall inside the
	// window covered by the last snapshot loop.
	target            Applier
	targetForBuffered Applier
	recovery          SnapshotRecovery
	requester         Requester
	executor          Executor
	tracker           CycleTracker

	mu                       sync.Mutex
	state                    State
	buffer                   *Buffer
	lastProcessedSeqNum      uint64
	smallestSnapshotSequence uint64
	highestSnapshotSequence  uint64
	receivingCycle           bool
	attempts                 int

	// current mirrors state for lock-free reads.
	current atomic.Int32

	listenersMu sync.RWMutex
	listeners   []StateListener

	metrics *channelMetrics
}

// NewController creates a controller in the Initial state.
func NewController(cfg Config, target, targetForBuffered Applier, recovery SnapshotRecovery, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		cfg:               cfg,
		logger:            logger.With(zap.String("channel", cfg.ChannelID)),
		target:            target,
		targetForBuffered: targetForBuffered,
		recovery:          recovery,
		state:             Initial,
		buffer:            NewBuffer(cfg.BufferCapacity),
		tracker:           NewSnapshotCycle(),
		metrics:           newChannelMetrics(cfg.ChannelID),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(int32(Initial))
	return c
}

// ID returns the channel id.
func (c *Controller) ID() string { return c.cfg.ChannelID }

// State returns the current state without taking the channel lock, so it is
// safe to call from a state listener.
func (c *Controller) State() State {
	return State(c.current.Load())
}

// AddListener registers l. Listeners are called in registration order.
func (c *Controller) AddListener(l StateListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenersMu.Unlock()
}

// Status returns a consistent view of the channel cursors.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		ChannelID:                c.cfg.ChannelID,
		State:                    c.state,
		LastProcessedSeqNum:      c.lastProcessedSeqNum,
		SmallestSnapshotSequence: c.smallestSnapshotSequence,
		HighestSnapshotSequence:  c.highestSnapshotSequence,
		Buffered:                 c.buffer.Len(),
		Attempts:                 c.attempts,
		ReceivingCycle:           c.receivingCycle,
	}
}

// PreClose stops packet processing ahead of Close.
func (c *Controller) PreClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closing || c.state == Closed {
		return
	}
	c.switchState(Closing)
}

// Close moves the channel to Closed. Later packets are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return
	}
	c.switchState(Closed)
}

// HandleSnapshotPacket consumes one packet from the snapshot loop.
func (c *Controller) HandleSnapshotPacket(fc mdp.FeedContext, p *mdp.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.accepting() {
		return
	}
	if p.SeqNum == 1 {
		c.onCycleBoundary()
	}
	if c.state == Sync || !c.receivingCycle {
		return
	}
	for i := range p.Messages {
		c.trackSnapshotMessage(&p.Messages[i])
	}
	c.target.HandleSnapshotPacket(fc, p)
	c.metrics.snapshot.Inc()
}

// onCycleBoundary handles the first packet of a snapshot loop, which also
// marks the end of the previous one.
func (c *Controller) onCycleBoundary() {
	if !c.receivingCycle {
		c.tracker.Reset()
		c.receivingCycle = true
		return
	}

	if c.state == Sync {
		// Retransmission caught up while the loop was accumulating.
		c.logger.Debug("discarding snapshot cycle, channel already in sync")
		c.receivingCycle = false
		return
	}

	smallest, okSmallest := c.tracker.SmallestSnapshotSequence()
	highest, okHighest := c.tracker.HighestSnapshotSequence()
	if !okSmallest || !okHighest {
		// Chunks already held stay valid for securities whose as-of
		// sequence does not move in the next loop.
		c.logger.Debug("snapshot cycle incomplete, collecting another loop")
		return
	}

	c.smallestSnapshotSequence = smallest
	c.highestSnapshotSequence = highest
	c.lastProcessedSeqNum = highest
	c.recovery.StopRecovery()
	c.switchState(Sync)
	c.metrics.resyncs.Inc()
	c.logger.Info("channel synchronized from snapshot",
		zap.Uint64("smallest", smallest),
		zap.Uint64("highest", highest),
		zap.Int("buffered", c.buffer.Len()),
	)
	c.processMessagesFromBuffer()
	c.receivingCycle = false
	c.attempts = 0
}

func (c *Controller) trackSnapshotMessage(m *mdp.Message) {
	if !m.IsSnapshot() {
		return
	}
	ok := c.tracker.Update(
		uint64(m.TotNumReports),
		uint64(m.LastMsgSeqNumProcessed),
		m.SecurityID,
		uint64(m.NoChunks),
		uint64(m.CurrentChunk),
	)
	if !ok {
		c.logger.Debug("skipping snapshot message with invalid chunk fields",
			zap.Int32("security_id", m.SecurityID),
			zap.Uint32("chunks", m.NoChunks),
			zap.Uint32("current_chunk", m.CurrentChunk),
		)
	}
}

// HandleIncrementalPacket consumes one packet from an incremental feed or
// the replay service.
func (c *Controller) HandleIncrementalPacket(fc mdp.FeedContext, p *mdp.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Sync:
		c.handleInSync(fc, p)
	case Initial, OutOfSync:
		c.bufferPacket(fc, p)
	}
}

func (c *Controller) handleInSync(fc mdp.FeedContext, p *mdp.Packet) {
	seq := p.SeqNum
	expected := c.lastProcessedSeqNum + 1

	switch {
	case seq == expected:
		c.target.HandleIncrementalPacket(fc, p)
		c.lastProcessedSeqNum = seq
		c.metrics.incremental.Inc()
		c.processMessagesFromBuffer()
	case seq > expected:
		c.bufferPacket(fc, p)
		if seq > expected+c.cfg.GapThreshold {
			c.onGap(expected, seq)
		}
	default:
		c.metrics.stale.Inc()
		c.logger.Debug("dropping stale packet",
			zap.Uint64("seq", seq),
			zap.Uint64("expected", expected),
			zap.Stringer("feed", fc),
		)
	}
}

func (c *Controller) bufferPacket(fc mdp.FeedContext, p *mdp.Packet) {
	err := c.buffer.Add(fc, p)
	switch {
	case err == nil:
		c.metrics.buffered.Set(float64(c.buffer.Len()))
	case errors.Is(err, ErrDuplicate):
		c.metrics.bufferReject("duplicate")
	default:
		c.metrics.bufferReject("full")
		c.logger.Warn("dropping packet",
			zap.Uint64("seq", p.SeqNum),
			zap.Int("capacity", c.cfg.BufferCapacity),
			zap.Error(err),
		)
	}
}

func (c *Controller) onGap(expected, seq uint64) {
	c.switchState(OutOfSync)
	c.metrics.gaps.Inc()

	lost := seq - expected
	c.logger.Info("gap detected",
		zap.Uint64("expected", expected),
		zap.Uint64("seq", seq),
		zap.Uint64("lost", lost),
		zap.Int("attempts", c.attempts),
	)

	if c.canRetransmit(lost) {
		task := &retransmission{c: c, begin: expected, end: seq - 1, attempt: c.attempts + 1}
		err := c.executor.Submit(task.run)
		if err == nil {
			c.attempts++
			return
		}
		c.logger.Warn("could not schedule retransmission", zap.Error(err))
	}
	c.startRecovery()
}

func (c *Controller) canRetransmit(lost uint64) bool {
	if c.requester == nil || c.executor == nil {
		return false
	}
	return c.attempts < c.cfg.MaxAttempts && lost <= c.cfg.MaxWindow
}

func (c *Controller) startRecovery() {
	c.metrics.recoveries.Inc()
	c.logger.Info("starting snapshot recovery")
	c.recovery.StartRecovery()
}

// processMessagesFromBuffer drains buffered packets in sequence order. The
// primary cursor (lastProcessedSeqNum) feeds the target applier; packets at
// or below the highest snapshot sequence advance the secondary cursor
// (smallestSnapshotSequence) and go to targetForBuffered.
func (c *Controller) processMessagesFromBuffer() {
	defer func() {
		c.metrics.buffered.Set(float64(c.buffer.Len()))
	}()

	for !c.buffer.IsEmpty() {
		fc, p, _ := c.buffer.Remove()
		seq := p.SeqNum
		expected := c.lastProcessedSeqNum + 1

		switch {
		case seq == expected:
			c.target.HandleIncrementalPacket(fc, p)
			c.lastProcessedSeqNum = seq
			c.metrics.incremental.Inc()
		case seq < expected && seq <= c.highestSnapshotSequence:
			expectedSmallest := c.smallestSnapshotSequence + 1
			if seq == expectedSmallest {
				c.targetForBuffered.HandleIncrementalPacket(fc, p)
				c.smallestSnapshotSequence = seq
				c.metrics.secondary.Inc()
			} else if seq > expectedSmallest {
				c.reinsert(fc, p)
				return
			}
		case seq > expected:
			c.reinsert(fc, p)
			return
		default:
			c.metrics.stale.Inc()
		}
	}
}

func (c *Controller) reinsert(fc mdp.FeedContext, p *mdp.Packet) {
	if err := c.buffer.Add(fc, p); err != nil {
		// Cannot happen: the slot was just freed by Remove.
		c.logger.Error("re-inserting buffered packet", zap.Uint64("seq", p.SeqNum), zap.Error(err))
	}
}

// onRetransmissionDone applies the outcome of a finished request.
func (c *Controller) onRetransmissionDone(replayed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != OutOfSync {
		return
	}
	if replayed {
		c.switchState(Sync)
		c.processMessagesFromBuffer()
		return
	}
	c.startRecovery()
}

func (c *Controller) switchState(next State) {
	prev := c.state
	c.logger.Debug("channel state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)
	c.state = next
	c.current.Store(int32(next))
	c.metrics.setState(next)
	c.notifyListeners(prev, next)
}

func (c *Controller) notifyListeners(prev, next State) {
	c.listenersMu.RLock()
	listeners := c.listeners
	c.listenersMu.RUnlock()

	for _, l := range listeners {
		c.notifyListener(l, prev, next)
	}
}

func (c *Controller) notifyListener(l StateListener, prev, next State) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("state listener panicked",
				zap.String("listener", fmt.Sprintf("%T", l)),
				zap.Any("panic", r),
			)
		}
	}()
	l.OnChannelStateChanged(c.cfg.ChannelID, prev, next)
}
