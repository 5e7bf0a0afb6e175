// Package feed wires multicast receivers, the gap controller and its
// recovery collaborators into a running channel.
package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/mdfeed/internal/capture"
	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/mdp"
	"github.com/dgnsrekt/mdfeed/internal/replay"
	"github.com/dgnsrekt/mdfeed/internal/transport"
)

// Endpoints names the A and B lines of one feed. Either may be empty.
type Endpoints struct {
	A         string
	B         string
	Interface string
}

// ChannelConfig describes one channel.
type ChannelConfig struct {
	Gap         gap.Config
	Incremental Endpoints
	Snapshot    Endpoints
	// Replay enables targeted retransmission when set.
	Replay *replay.Config
	Chaos  transport.ChaosConfig
}

// Listener opens an endpoint for addr on iface.
type Listener func(addr, iface string) (transport.Endpoint, error)

// ListenUDP is the production Listener.
func ListenUDP(addr, iface string) (transport.Endpoint, error) {
	return transport.ListenUDP(addr, iface)
}

// Deps are the collaborators shared between channels.
type Deps struct {
	Listen    Listener
	Executor  gap.Executor
	Recorder  *capture.Recorder
	History   *replay.MemoryStore
	Listeners []gap.StateListener
	// Downstream receives the ordered stream when set.
	Downstream gap.Applier
}

// Channel is one running channel.
type Channel struct {
	cfg    ChannelConfig
	deps   Deps
	logger *zap.Logger

	ctrl      *gap.Controller
	gate      *SnapshotGate
	primary   *Applier
	secondary *Applier
}

// Stats is the per-channel summary served by the admin API.
type Stats struct {
	Status          gap.Status `json:"status"`
	Primary         Counts     `json:"primary"`
	Secondary       Counts     `json:"secondary"`
	RecoveryActive  bool       `json:"recovery_active"`
	RecoveryStarts  uint64     `json:"recovery_starts"`
	ReplayAvailable bool       `json:"replay_available"`
}

// NewChannel assembles a channel. Nothing is opened until Run.
func NewChannel(cfg ChannelConfig, deps Deps, logger *zap.Logger) *Channel {
	if deps.Listen == nil {
		deps.Listen = ListenUDP
	}
	id := cfg.Gap.ChannelID
	logger = logger.With(zap.String("channel", id))

	c := &Channel{
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		gate:      NewSnapshotGate(logger),
		primary:   NewApplier(id, "primary", deps.Downstream, deps.History, logger),
		secondary: NewApplier(id, "secondary", nil, nil, logger),
	}

	opts := []gap.Option{gap.WithListeners(deps.Listeners...)}
	if cfg.Replay != nil && deps.Executor != nil {
		rcfg := *cfg.Replay
		if rcfg.Channel == "" {
			rcfg.Channel = id
		}
		opts = append(opts, gap.WithRequester(replay.NewTCPRequester(rcfg, logger), deps.Executor))
	}
	c.ctrl = gap.NewController(cfg.Gap, c.primary, c.secondary, c.gate, logger, opts...)
	c.gate.bind(c.ctrl.HandleSnapshotPacket)
	return c
}

func (c *Channel) ID() string { return c.cfg.Gap.ChannelID }

// Controller exposes the channel's state machine.
func (c *Channel) Controller() *gap.Controller { return c.ctrl }

// Stats returns the current channel summary.
func (c *Channel) Stats() Stats {
	return Stats{
		Status:          c.ctrl.Status(),
		Primary:         c.primary.Counts(),
		Secondary:       c.secondary.Counts(),
		RecoveryActive:  c.gate.Active(),
		RecoveryStarts:  c.gate.Starts(),
		ReplayAvailable: c.cfg.Replay != nil && c.deps.Executor != nil,
	}
}

// Run opens every configured line and feeds the controller until ctx is
// cancelled or a receiver fails. The channel starts by recovering from the
// snapshot loop.
func (c *Channel) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	lines := []struct {
		addr  string
		iface string
		fc    mdp.FeedContext
		h     transport.Handler
	}{
		{c.cfg.Incremental.A, c.cfg.Incremental.Interface, mdp.FeedContext{Feed: mdp.FeedA, Type: mdp.FeedIncremental}, c.ctrl.HandleIncrementalPacket},
		{c.cfg.Incremental.B, c.cfg.Incremental.Interface, mdp.FeedContext{Feed: mdp.FeedB, Type: mdp.FeedIncremental}, c.ctrl.HandleIncrementalPacket},
		{c.cfg.Snapshot.A, c.cfg.Snapshot.Interface, mdp.FeedContext{Feed: mdp.FeedA, Type: mdp.FeedSnapshot}, c.gate.Handle},
		{c.cfg.Snapshot.B, c.cfg.Snapshot.Interface, mdp.FeedContext{Feed: mdp.FeedB, Type: mdp.FeedSnapshot}, c.gate.Handle},
	}

	var endpoints []transport.Endpoint
	closeAll := func() {
		for _, ep := range endpoints {
			ep.Close()
		}
	}
	for _, line := range lines {
		if line.addr == "" {
			continue
		}
		ep, err := c.deps.Listen(line.addr, line.iface)
		if err != nil {
			closeAll()
			return fmt.Errorf("opening %s feed %s: %w", line.fc, line.addr, err)
		}
		if c.cfg.Chaos.Enabled() {
			ep = transport.WrapChaos(ep, c.cfg.Chaos)
		}
		endpoints = append(endpoints, ep)

		r := transport.NewReceiver(ep, line.fc, line.h, c.logger)
		if c.deps.Recorder != nil {
			r.SetTap(c.deps.Recorder.Tap)
		}
		g.Go(func() error {
			return r.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		closeAll()
		return nil
	})

	c.logger.Info("channel started", zap.Int("lines", len(endpoints)))
	c.gate.StartRecovery()
	return g.Wait()
}

// Shutdown stops packet processing and closes the controller.
func (c *Channel) Shutdown() {
	c.ctrl.PreClose()
	c.gate.StopRecovery()
	c.ctrl.Close()
	c.logger.Info("channel closed", zap.Uint64("last_seq_num", c.ctrl.Status().LastProcessedSeqNum))
}
