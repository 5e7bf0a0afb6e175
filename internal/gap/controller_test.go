package gap_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/gap/mocks"
	"github.com/dgnsrekt/mdfeed/internal/mdp"
	"github.com/dgnsrekt/mdfeed/internal/worker"
)

var (
	incA  = mdp.FeedContext{Feed: mdp.FeedA, Type: mdp.FeedIncremental}
	snapA = mdp.FeedContext{Feed: mdp.FeedA, Type: mdp.FeedSnapshot}
)

type recordingApplier struct {
	mu          sync.Mutex
	incremental []uint64
	snapshot    []uint64
	contexts    []mdp.FeedContext
}

func (a *recordingApplier) HandleIncrementalPacket(fc mdp.FeedContext, p *mdp.Packet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.incremental = append(a.incremental, p.SeqNum)
	a.contexts = append(a.contexts, fc)
}

func (a *recordingApplier) HandleSnapshotPacket(_ mdp.FeedContext, p *mdp.Packet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot = append(a.snapshot, p.SeqNum)
}

func (a *recordingApplier) Incremental() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.incremental)
}

func (a *recordingApplier) Snapshot() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.snapshot)
}

// queueExecutor holds submitted tasks until the test runs them.
type queueExecutor struct {
	mu    sync.Mutex
	tasks []func()
	err   error
}

func (e *queueExecutor) Submit(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.tasks = append(e.tasks, task)
	return nil
}

func (e *queueExecutor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// RunAll runs queued tasks, including ones submitted while running, and
// returns how many ran.
func (e *queueExecutor) RunAll() int {
	n := 0
	for {
		e.mu.Lock()
		if len(e.tasks) == 0 {
			e.mu.Unlock()
			return n
		}
		task := e.tasks[0]
		e.tasks = e.tasks[1:]
		e.mu.Unlock()
		task()
		n++
	}
}

type fixture struct {
	ctrl      *gap.Controller
	primary   *recordingApplier
	secondary *recordingApplier
	recovery  *mocks.MockSnapshotRecovery
	requester *mocks.MockRequester
	exec      *queueExecutor
}

func newFixture(t *testing.T, cfg gap.Config, withRequester bool, opts ...gap.Option) *fixture {
	t.Helper()
	f := newMocks(t)
	if withRequester {
		opts = append(opts, gap.WithRequester(f.requester, f.exec))
	}
	f.ctrl = gap.NewController(cfg, f.primary, f.secondary, f.recovery, zaptest.NewLogger(t), opts...)
	return f
}

// newMocks prepares appliers and mocks; the caller builds the controller.
func newMocks(t *testing.T) *fixture {
	mc := gomock.NewController(t)
	return &fixture{
		primary:   &recordingApplier{},
		secondary: &recordingApplier{},
		recovery:  mocks.NewMockSnapshotRecovery(mc),
		requester: mocks.NewMockRequester(mc),
		exec:      &queueExecutor{},
	}
}

func testConfig(id string) gap.Config {
	cfg := gap.DefaultConfig(id)
	cfg.BufferCapacity = 1024
	return cfg
}

func snapshotMsg(security int32, lastSeq, total uint32) mdp.Message {
	return mdp.Message{
		TemplateID:             mdp.TemplateSnapshotFullRefresh,
		SecurityID:             security,
		LastMsgSeqNumProcessed: lastSeq,
		TotNumReports:          total,
		NoChunks:               1,
		CurrentChunk:           1,
	}
}

// completeCycle delivers one snapshot loop with a packet per message,
// followed by the first packet of the next loop.
func completeCycle(c *gap.Controller, msgs ...mdp.Message) {
	for i, m := range msgs {
		c.HandleSnapshotPacket(snapA, mdp.NewPacket(uint64(i+1), m))
	}
	c.HandleSnapshotPacket(snapA, mdp.NewPacket(1))
}

func (f *fixture) syncTo(t *testing.T, seq uint32) {
	t.Helper()
	f.recovery.EXPECT().StopRecovery()
	completeCycle(f.ctrl, snapshotMsg(1, seq, 1))
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, uint64(seq), f.ctrl.Status().LastProcessedSeqNum)
}

func (f *fixture) deliver(seqs ...uint64) {
	for _, s := range seqs {
		f.ctrl.HandleIncrementalPacket(incA, mdp.NewPacket(s))
	}
}

func replayRange(_ context.Context, begin, end uint64, l gap.PacketListener) (bool, error) {
	for s := begin; s <= end; s++ {
		l.OnPacket(mdp.FeedContext{}, mdp.NewPacket(s))
	}
	return true, nil
}

func seqRange(from, to uint64) []uint64 {
	out := make([]uint64, 0, to-from+1)
	for s := from; s <= to; s++ {
		out = append(out, s)
	}
	return out
}

func TestSnapshotResyncFromInitial(t *testing.T) {
	f := newFixture(t, testConfig("scenario-a"), true)
	listener := mocks.NewMockStateListener(gomock.NewController(t))
	listener.EXPECT().OnChannelStateChanged("scenario-a", gap.Initial, gap.Sync)
	f.ctrl.AddListener(listener)

	f.deliver(5, 6, 7)
	require.Equal(t, gap.Initial, f.ctrl.State())
	require.Empty(t, f.primary.Incremental())
	require.Empty(t, f.secondary.Incremental())
	require.Equal(t, 3, f.ctrl.Status().Buffered)

	f.recovery.EXPECT().StopRecovery()
	completeCycle(f.ctrl, snapshotMsg(1, 4, 2), snapshotMsg(2, 6, 2))

	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, []uint64{7}, f.primary.Incremental())
	require.Equal(t, []uint64{5, 6}, f.secondary.Incremental())
	require.Equal(t, []uint64{1, 2}, f.primary.Snapshot())

	status := f.ctrl.Status()
	require.Equal(t, uint64(7), status.LastProcessedSeqNum)
	require.Equal(t, uint64(6), status.SmallestSnapshotSequence)
	require.Equal(t, uint64(6), status.HighestSnapshotSequence)
	require.Zero(t, status.Buffered)
	require.False(t, status.ReceivingCycle)
}

func TestGapSchedulesRetransmission(t *testing.T) {
	cfg := testConfig("scenario-b")
	cfg.GapThreshold = 5
	f := newFixture(t, cfg, true)
	f.syncTo(t, 100)

	listener := mocks.NewMockStateListener(gomock.NewController(t))
	gomock.InOrder(
		listener.EXPECT().OnChannelStateChanged("scenario-b", gap.Sync, gap.OutOfSync),
		listener.EXPECT().OnChannelStateChanged("scenario-b", gap.OutOfSync, gap.Sync),
	)
	f.ctrl.AddListener(listener)

	f.deliver(107)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())
	require.Equal(t, 1, f.exec.Len())
	require.Equal(t, 1, f.ctrl.Status().Attempts)

	f.requester.EXPECT().
		AskForLostMessages(gomock.Any(), uint64(101), uint64(106), gomock.Any()).
		DoAndReturn(replayRange)
	require.Equal(t, 1, f.exec.RunAll())

	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, seqRange(101, 107), f.primary.Incremental())
	require.Equal(t, uint64(107), f.ctrl.Status().LastProcessedSeqNum)
}

func TestReplayedPacketsCarryReplayContext(t *testing.T) {
	f := newFixture(t, testConfig("replay-ctx"), true)
	f.syncTo(t, 10)

	f.deliver(12)
	f.requester.EXPECT().AskForLostMessages(gomock.Any(), uint64(11), uint64(11), gomock.Any()).DoAndReturn(replayRange)
	f.exec.RunAll()

	require.Equal(t, []uint64{11, 12}, f.primary.Incremental())
	require.Equal(t, mdp.FeedReplay, f.primary.contexts[0].Type)
	require.Equal(t, mdp.FeedIncremental, f.primary.contexts[1].Type)
}

func TestGapThresholdBoundary(t *testing.T) {
	cfg := testConfig("threshold")
	cfg.GapThreshold = 5
	f := newFixture(t, cfg, false)
	f.syncTo(t, 100)

	f.deliver(106)
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, 1, f.ctrl.Status().Buffered)

	f.recovery.EXPECT().StartRecovery()
	f.deliver(107)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())
	require.Equal(t, 2, f.ctrl.Status().Buffered)
}

func TestZeroThresholdFillsInSync(t *testing.T) {
	cfg := testConfig("zero-threshold")
	f := newFixture(t, cfg, false)
	f.syncTo(t, 10)

	f.deliver(11, 12, 13)
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, []uint64{11, 12, 13}, f.primary.Incremental())
}

func TestRetransmissionRejectedFallsBackToSnapshot(t *testing.T) {
	cfg := testConfig("scenario-c")
	cfg.GapThreshold = 5
	f := newFixture(t, cfg, true)
	f.syncTo(t, 100)

	f.deliver(107)
	f.requester.EXPECT().AskForLostMessages(gomock.Any(), uint64(101), uint64(106), gomock.Any()).Return(false, nil)
	f.recovery.EXPECT().StartRecovery().Times(1)
	f.exec.RunAll()
	require.Equal(t, gap.OutOfSync, f.ctrl.State())

	f.deliver(108)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())
	require.Empty(t, f.primary.Incremental())

	f.recovery.EXPECT().StopRecovery()
	completeCycle(f.ctrl, snapshotMsg(1, 106, 1))
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, []uint64{107, 108}, f.primary.Incremental())
	require.Zero(t, f.ctrl.Status().Attempts)
}

func TestRetransmissionAttemptsExhausted(t *testing.T) {
	cfg := testConfig("exhaustion")
	cfg.MaxAttempts = 2
	f := newFixture(t, cfg, true)
	f.syncTo(t, 10)

	f.requester.EXPECT().AskForLostMessages(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(replayRange).
		Times(3)

	f.deliver(12)
	require.Equal(t, 1, f.exec.RunAll())
	f.deliver(14)
	require.Equal(t, 1, f.exec.RunAll())
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, 2, f.ctrl.Status().Attempts)

	f.recovery.EXPECT().StartRecovery()
	f.deliver(16)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())
	require.Zero(t, f.exec.Len())
	require.Equal(t, 2, f.ctrl.Status().Attempts)

	f.recovery.EXPECT().StopRecovery()
	completeCycle(f.ctrl, snapshotMsg(1, 15, 1))
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Zero(t, f.ctrl.Status().Attempts)
	// 15 was never delivered; the snapshot covers it.
	require.Equal(t, []uint64{11, 12, 13, 14, 16}, f.primary.Incremental())

	f.deliver(18)
	require.Equal(t, 1, f.exec.RunAll())
	require.Equal(t, []uint64{11, 12, 13, 14, 16, 17, 18}, f.primary.Incremental())
}

func TestRetransmissionWindow(t *testing.T) {
	t.Run("within window", func(t *testing.T) {
		cfg := testConfig("window-ok")
		cfg.MaxWindow = 6
		f := newFixture(t, cfg, true)
		f.syncTo(t, 100)

		f.deliver(107)
		require.Equal(t, 1, f.exec.Len())
	})
	t.Run("window exceeded", func(t *testing.T) {
		cfg := testConfig("window-exceeded")
		cfg.MaxWindow = 5
		f := newFixture(t, cfg, true)
		f.syncTo(t, 100)

		f.recovery.EXPECT().StartRecovery()
		f.deliver(107)
		require.Zero(t, f.exec.Len())
		require.Zero(t, f.ctrl.Status().Attempts)
	})
}

func TestGapWithoutRequesterStartsRecovery(t *testing.T) {
	f := newFixture(t, testConfig("no-requester"), false)
	f.syncTo(t, 10)

	f.recovery.EXPECT().StartRecovery()
	f.deliver(12)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())
	require.Zero(t, f.exec.Len())
}

func TestExecutorRejectionDoesNotConsumeAttempt(t *testing.T) {
	f := newFixture(t, testConfig("pool-full"), true)
	f.syncTo(t, 10)
	f.exec.err = errors.New("pool full")

	f.recovery.EXPECT().StartRecovery()
	f.deliver(12)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())
	require.Zero(t, f.ctrl.Status().Attempts)
}

func TestRetransmissionFailureIsContained(t *testing.T) {
	tests := []struct {
		name string
		ask  func(context.Context, uint64, uint64, gap.PacketListener) (bool, error)
	}{
		{
			name: "error",
			ask: func(context.Context, uint64, uint64, gap.PacketListener) (bool, error) {
				return false, errors.New("connection reset")
			},
		},
		{
			name: "panic",
			ask: func(context.Context, uint64, uint64, gap.PacketListener) (bool, error) {
				panic("boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig("failure-"+tt.name), true)
			f.syncTo(t, 10)

			f.deliver(12)
			f.requester.EXPECT().AskForLostMessages(gomock.Any(), uint64(11), uint64(11), gomock.Any()).DoAndReturn(tt.ask)
			require.NotPanics(t, func() { f.exec.RunAll() })
			require.Equal(t, gap.OutOfSync, f.ctrl.State())
			require.Empty(t, f.primary.Incremental())
		})
	}
}

func TestStaleAndDuplicatePacketsDropped(t *testing.T) {
	f := newFixture(t, testConfig("stale"), false)
	f.syncTo(t, 10)

	f.deliver(11, 11, 9, 12, 10, 12)
	require.Equal(t, []uint64{11, 12}, f.primary.Incremental())
	require.Zero(t, f.ctrl.Status().Buffered)
}

func TestBufferedDuplicatesCollapse(t *testing.T) {
	cfg := testConfig("dup-buffer")
	cfg.GapThreshold = 100
	f := newFixture(t, cfg, false)
	f.syncTo(t, 10)

	f.deliver(13, 13, 12, 13)
	require.Equal(t, 2, f.ctrl.Status().Buffered)
	f.deliver(11)
	require.Equal(t, []uint64{11, 12, 13}, f.primary.Incremental())
}

func TestOverlapWindowRouting(t *testing.T) {
	f := newFixture(t, testConfig("overlap"), false)
	f.deliver(seqRange(11, 20)...)

	f.recovery.EXPECT().StopRecovery()
	completeCycle(f.ctrl, snapshotMsg(1, 10, 2), snapshotMsg(2, 15, 2))

	require.Equal(t, seqRange(11, 15), f.secondary.Incremental())
	require.Equal(t, seqRange(16, 20), f.primary.Incremental())
	for _, s := range f.primary.Incremental() {
		require.NotContains(t, f.secondary.Incremental(), s)
	}
}

func TestDrainWaitsForSecondaryCursor(t *testing.T) {
	f := newFixture(t, testConfig("secondary-wait"), false)
	f.deliver(6, 7)

	f.recovery.EXPECT().StopRecovery()
	completeCycle(f.ctrl, snapshotMsg(1, 4, 2), snapshotMsg(2, 6, 2))

	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Empty(t, f.primary.Incremental())
	require.Empty(t, f.secondary.Incremental())
	require.Equal(t, 2, f.ctrl.Status().Buffered)
}

func TestReconciliationIsDeterministic(t *testing.T) {
	run := func(id string) ([]uint64, []uint64) {
		f := newFixture(t, testConfig(id), false)
		f.deliver(9, 4, 7, 5, 8, 6, 12, 10)
		f.recovery.EXPECT().StopRecovery()
		completeCycle(f.ctrl, snapshotMsg(1, 3, 3), snapshotMsg(2, 8, 3), snapshotMsg(3, 5, 3))
		return f.primary.Incremental(), f.secondary.Incremental()
	}

	p1, s1 := run("determinism-1")
	p2, s2 := run("determinism-2")
	require.Equal(t, p1, p2)
	require.Equal(t, s1, s2)
	require.Equal(t, seqRange(4, 8), s1)
	require.Equal(t, []uint64{9, 10}, p1)
	for _, s := range p1 {
		require.NotContains(t, s1, s)
	}
}

func TestIncompleteCycleKeepsCollecting(t *testing.T) {
	f := newFixture(t, testConfig("incomplete"), false)

	// Loop one misses security 2.
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1, snapshotMsg(1, 20, 2)))
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1, snapshotMsg(1, 20, 2)))
	require.Equal(t, gap.Initial, f.ctrl.State())
	require.True(t, f.ctrl.Status().ReceivingCycle)

	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(2, snapshotMsg(2, 22, 2)))
	f.recovery.EXPECT().StopRecovery()
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1))
	require.Equal(t, gap.Sync, f.ctrl.State())
	require.Equal(t, uint64(22), f.ctrl.Status().LastProcessedSeqNum)
}

func TestMalformedSnapshotMessagesSkipped(t *testing.T) {
	f := newFixture(t, testConfig("malformed"), false)

	bad := snapshotMsg(1, 30, 1)
	bad.CurrentChunk = 3
	other := mdp.Message{TemplateID: mdp.TemplateIncrementalRefresh, SecurityID: 9}
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1, bad, other))
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1))
	require.Equal(t, gap.Initial, f.ctrl.State())
}

func TestSnapshotPacketsIgnoredWhileInSync(t *testing.T) {
	f := newFixture(t, testConfig("sync-snapshot"), false)
	f.syncTo(t, 10)
	before := f.primary.Snapshot()

	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(2, snapshotMsg(1, 50, 1)))
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1, snapshotMsg(1, 50, 1)))
	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(2, snapshotMsg(1, 50, 1)))
	require.Equal(t, before, f.primary.Snapshot())
	require.Equal(t, uint64(10), f.ctrl.Status().LastProcessedSeqNum)
}

func TestCycleDiscardedAfterRetransmissionSync(t *testing.T) {
	f := newFixture(t, testConfig("discard-cycle"), true)
	f.syncTo(t, 100)

	f.deliver(103)
	require.Equal(t, gap.OutOfSync, f.ctrl.State())

	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1, snapshotMsg(1, 90, 1)))
	require.True(t, f.ctrl.Status().ReceivingCycle)

	f.requester.EXPECT().AskForLostMessages(gomock.Any(), uint64(101), uint64(102), gomock.Any()).DoAndReturn(replayRange)
	f.exec.RunAll()
	require.Equal(t, gap.Sync, f.ctrl.State())

	f.ctrl.HandleSnapshotPacket(snapA, mdp.NewPacket(1))
	status := f.ctrl.Status()
	require.False(t, status.ReceivingCycle)
	require.Equal(t, uint64(103), status.LastProcessedSeqNum)
}

func TestCloseIgnoresPackets(t *testing.T) {
	f := newFixture(t, testConfig("close"), true)
	listener := mocks.NewMockStateListener(gomock.NewController(t))
	gomock.InOrder(
		listener.EXPECT().OnChannelStateChanged("close", gap.Initial, gap.Closing),
		listener.EXPECT().OnChannelStateChanged("close", gap.Closing, gap.Closed),
	)
	f.ctrl.AddListener(listener)

	f.ctrl.PreClose()
	f.ctrl.PreClose()
	require.Equal(t, gap.Closing, f.ctrl.State())

	f.deliver(1, 2)
	completeCycle(f.ctrl, snapshotMsg(1, 5, 1))
	require.Zero(t, f.ctrl.Status().Buffered)
	require.Empty(t, f.primary.Snapshot())

	f.ctrl.Close()
	f.ctrl.Close()
	f.ctrl.PreClose()
	require.Equal(t, gap.Closed, f.ctrl.State())
}

func TestListenerPanicDoesNotAbortTransition(t *testing.T) {
	var seen []gap.State
	f := newFixture(t, testConfig("listener-panic"), false,
		gap.WithListeners(
			gap.StateListenerFunc(func(string, gap.State, gap.State) { panic("listener failure") }),
			gap.StateListenerFunc(func(_ string, _, next gap.State) { seen = append(seen, next) }),
		),
	)

	f.syncTo(t, 3)
	require.Equal(t, []gap.State{gap.Sync}, seen)
}

func TestBufferFullDropsPacket(t *testing.T) {
	cfg := testConfig("buffer-full")
	cfg.BufferCapacity = 2
	f := newFixture(t, cfg, false)

	f.deliver(5, 6, 7)
	require.Equal(t, 2, f.ctrl.Status().Buffered)
}

func TestOrderingInvariant(t *testing.T) {
	const n = 200
	for seed := uint64(1); seed <= 20; seed++ {
		cfg := testConfig("ordering")
		cfg.MaxAttempts = 1 << 20
		cfg.GapThreshold = seed % 4
		f := newFixture(t, cfg, true)
		f.requester.EXPECT().AskForLostMessages(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(replayRange).
			AnyTimes()
		f.syncTo(t, 0)

		rng := rand.New(rand.NewPCG(seed, seed*31))
		input := seqRange(1, n)
		for i := 0; i < n/4; i++ {
			input = append(input, uint64(rng.IntN(n)+1))
		}
		// Shuffle within small windows to keep reordering local.
		for i := 0; i+8 <= len(input); i += 8 {
			rng.Shuffle(8, func(a, b int) { input[i+a], input[i+b] = input[i+b], input[i+a] })
		}

		for _, s := range input {
			f.deliver(s)
			f.exec.RunAll()
		}

		got := f.primary.Incremental()
		require.Equal(t, seqRange(1, n), got, "seed %d", seed)
		require.Empty(t, f.secondary.Incremental())
		require.Equal(t, gap.Sync, f.ctrl.State())
	}
}

// Both lines and the retransmission workers call into the controller from
// their own goroutines. Line A drops and reorders packets; line B carries
// every packet in order.
func TestConcurrentLinesWithWorkerPool(t *testing.T) {
	const n = 2000
	for iter := uint64(1); iter <= 10; iter++ {
		pool := worker.NewPool(4, n, zap.NewNop())
		pool.Start(context.Background())

		cfg := testConfig("concurrent")
		cfg.MaxAttempts = 1 << 20
		cfg.MaxWindow = n
		cfg.BufferCapacity = 2 * n
		f := newMocks(t)
		f.ctrl = gap.NewController(cfg, f.primary, f.secondary, f.recovery, zap.NewNop(),
			gap.WithRequester(f.requester, pool))
		f.requester.EXPECT().AskForLostMessages(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(replayRange).
			AnyTimes()
		f.syncTo(t, 0)

		rng := rand.New(rand.NewPCG(iter, iter*17))
		lineA := make([]uint64, 0, n)
		for _, s := range seqRange(1, n) {
			if rng.IntN(10) == 0 {
				continue
			}
			lineA = append(lineA, s)
		}
		for i := 0; i+4 <= len(lineA); i += 4 {
			rng.Shuffle(4, func(a, b int) { lineA[i+a], lineA[i+b] = lineA[i+b], lineA[i+a] })
		}

		var wg sync.WaitGroup
		feedLine := func(fc mdp.FeedContext, seqs []uint64) {
			defer wg.Done()
			for _, s := range seqs {
				f.ctrl.HandleIncrementalPacket(fc, mdp.NewPacket(s))
			}
		}
		wg.Add(2)
		go feedLine(incA, lineA)
		go feedLine(mdp.FeedContext{Feed: mdp.FeedB, Type: mdp.FeedIncremental}, seqRange(1, n))
		wg.Wait()

		require.Eventually(t, func() bool {
			st := f.ctrl.Status()
			return st.State == gap.Sync && st.LastProcessedSeqNum == n
		}, 5*time.Second, time.Millisecond, "iteration %d", iter)
		pool.Stop()

		require.Equal(t, seqRange(1, n), f.primary.Incremental(), "iteration %d", iter)
		require.Zero(t, f.ctrl.Status().Buffered)
	}
}
