package feed

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/mdp"
	"github.com/dgnsrekt/mdfeed/internal/replay"
	"github.com/dgnsrekt/mdfeed/internal/transport"
	"github.com/dgnsrekt/mdfeed/internal/worker"
)

type memNetwork map[string]*transport.MemEndpoint

func (n memNetwork) listen(addr, _ string) (transport.Endpoint, error) {
	ep, ok := n[addr]
	if !ok {
		return nil, errors.New("no such endpoint")
	}
	return ep, nil
}

func (n memNetwork) send(t *testing.T, addr string, p *mdp.Packet) {
	t.Helper()
	require.True(t, n[addr].Send(mdp.EncodePacket(p)))
}

func newNetwork(addrs ...string) memNetwork {
	n := make(memNetwork)
	for _, a := range addrs {
		n[a] = transport.NewMemEndpoint(256)
	}
	return n
}

func snapshotPacket(seq uint64, security int32, lastSeq uint32) *mdp.Packet {
	return mdp.NewPacket(seq, mdp.Message{
		TemplateID:             mdp.TemplateSnapshotFullRefresh,
		SecurityID:             security,
		LastMsgSeqNumProcessed: lastSeq,
		TotNumReports:          1,
		NoChunks:               1,
		CurrentChunk:           1,
	})
}

func startChannel(t *testing.T, cfg ChannelConfig, deps Deps) (*Channel, func()) {
	t.Helper()
	ch := NewChannel(cfg, deps, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()
	return ch, func() {
		cancel()
		require.NoError(t, <-done)
		ch.Shutdown()
	}
}

func TestChannelSyncsFromSnapshotAndArbitratesLines(t *testing.T) {
	network := newNetwork("inc-a", "inc-b", "snap-a")
	cfg := ChannelConfig{
		Gap:         gap.DefaultConfig("310"),
		Incremental: Endpoints{A: "inc-a", B: "inc-b"},
		Snapshot:    Endpoints{A: "snap-a"},
	}
	ch, stop := startChannel(t, cfg, Deps{Listen: network.listen})

	require.Eventually(t, ch.gate.Active, time.Second, 5*time.Millisecond)

	network.send(t, "inc-a", mdp.NewPacket(11))
	network.send(t, "snap-a", snapshotPacket(1, 1, 10))
	network.send(t, "snap-a", mdp.NewPacket(1))

	require.Eventually(t, func() bool { return ch.Controller().State() == gap.Sync }, 2*time.Second, 5*time.Millisecond)
	require.False(t, ch.gate.Active())
	require.Eventually(t, func() bool { return ch.Stats().Primary.LastSeqNum == 11 }, 2*time.Second, 5*time.Millisecond)

	// Both lines carry the same stream; each packet is applied once.
	for seq := uint64(12); seq <= 20; seq++ {
		network.send(t, "inc-a", mdp.NewPacket(seq))
		network.send(t, "inc-b", mdp.NewPacket(seq))
	}
	require.Eventually(t, func() bool { return ch.Stats().Primary.LastSeqNum == 20 }, 2*time.Second, 5*time.Millisecond)

	stop()
	stats := ch.Stats()
	require.Equal(t, gap.Closed, stats.Status.State)
	require.Equal(t, uint64(10), stats.Primary.Incremental)
	require.Zero(t, stats.Primary.Violations)
	require.Equal(t, uint64(1), stats.Primary.Snapshot)
	require.False(t, stats.ReplayAvailable)
}

func TestChannelRecoversThroughReplay(t *testing.T) {
	store := replay.NewMemoryStore(100)
	for seq := uint64(1); seq <= 50; seq++ {
		store.Add("310", mdp.NewPacket(seq))
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srvCtx, srvCancel := context.WithCancel(context.Background())
	defer srvCancel()
	go func() { _ = replay.NewServer(store, 0, zaptest.NewLogger(t)).Serve(srvCtx, ln) }()

	pool := worker.NewPool(1, 8, zaptest.NewLogger(t))
	pool.Start(context.Background())
	defer pool.Stop()

	network := newNetwork("inc-a", "snap-a")
	cfg := ChannelConfig{
		Gap:         gap.DefaultConfig("310"),
		Incremental: Endpoints{A: "inc-a"},
		Snapshot:    Endpoints{A: "snap-a"},
		Replay:      &replay.Config{Addr: ln.Addr().String(), RatePerSecond: 100},
	}
	history := replay.NewMemoryStore(100)
	ch, stop := startChannel(t, cfg, Deps{Listen: network.listen, Executor: pool, History: history})
	defer stop()

	require.Eventually(t, ch.gate.Active, time.Second, 5*time.Millisecond)
	network.send(t, "snap-a", snapshotPacket(1, 1, 10))
	network.send(t, "snap-a", mdp.NewPacket(1))
	require.Eventually(t, func() bool { return ch.Controller().State() == gap.Sync }, 2*time.Second, 5*time.Millisecond)

	network.send(t, "inc-a", mdp.NewPacket(11))
	network.send(t, "inc-a", mdp.NewPacket(15))

	require.Eventually(t, func() bool { return ch.Stats().Primary.LastSeqNum == 15 }, 5*time.Second, 5*time.Millisecond)
	stats := ch.Stats()
	require.Equal(t, gap.Sync, stats.Status.State)
	require.Equal(t, uint64(5), stats.Primary.Incremental)
	require.Equal(t, 1, stats.Status.Attempts)
	require.True(t, stats.ReplayAvailable)
	require.Equal(t, uint64(1), ch.gate.Starts())

	// Applied packets are retained for downstream replay requests.
	got, err := history.Range("310", 11, 15)
	require.NoError(t, err)
	require.Len(t, got, 5)
}

func TestChannelOpenFailure(t *testing.T) {
	ch := NewChannel(ChannelConfig{
		Gap:         gap.DefaultConfig("310"),
		Incremental: Endpoints{A: "missing"},
	}, Deps{Listen: newNetwork().listen}, zaptest.NewLogger(t))

	err := ch.Run(context.Background())
	require.Error(t, err)
}

func TestSnapshotGate(t *testing.T) {
	g := NewSnapshotGate(zaptest.NewLogger(t))
	var got []uint64
	g.bind(func(_ mdp.FeedContext, p *mdp.Packet) { got = append(got, p.SeqNum) })

	g.Handle(mdp.FeedContext{}, mdp.NewPacket(1))
	g.StartRecovery()
	g.StartRecovery()
	g.Handle(mdp.FeedContext{}, mdp.NewPacket(2))
	g.StopRecovery()
	g.Handle(mdp.FeedContext{}, mdp.NewPacket(3))

	require.Equal(t, []uint64{2}, got)
	require.Equal(t, uint64(1), g.Starts())
}

func TestApplierCounts(t *testing.T) {
	a := NewApplier("310", "primary", nil, nil, zaptest.NewLogger(t))
	for _, seq := range []uint64{5, 6, 9, 8} {
		a.HandleIncrementalPacket(mdp.FeedContext{}, mdp.NewPacket(seq, mdp.Message{}))
	}
	a.HandleSnapshotPacket(mdp.FeedContext{}, mdp.NewPacket(1))

	c := a.Counts()
	require.Equal(t, uint64(4), c.Incremental)
	require.Equal(t, uint64(1), c.Snapshot)
	require.Equal(t, uint64(4), c.Messages)
	require.Equal(t, uint64(1), c.Jumps)
	require.Equal(t, uint64(1), c.Violations)
	require.Equal(t, uint64(8), c.LastSeqNum)
}
