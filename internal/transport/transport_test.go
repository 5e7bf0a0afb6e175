package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

func TestUDPEndpointLoopback(t *testing.T) {
	ep, err := ListenUDP("127.0.0.1:0", "")
	require.NoError(t, err)
	defer ep.Close()

	require.NoError(t, ep.Send(ep.Addr(), []byte("hello")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, ok := ep.Recv(ctx)
	require.True(t, ok)
	require.Equal(t, "hello", string(got))

	ep.Close()
	_, ok = ep.Recv(context.Background())
	require.False(t, ok)
	require.Error(t, ep.Send(ep.Addr(), []byte("late")))
}

func TestUDPEndpointConcurrentClose(t *testing.T) {
	ep, err := ListenUDP("127.0.0.1:0", "")
	require.NoError(t, err)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ep.Close()
		}()
	}
	close(start)
	wg.Wait()

	_, ok := ep.Recv(context.Background())
	require.False(t, ok)
}

func TestReceiverDecodesAndTaps(t *testing.T) {
	ep := NewMemEndpoint(16)
	fc := mdp.FeedContext{Feed: mdp.FeedB, Type: mdp.FeedIncremental}

	var mu sync.Mutex
	var seqs []uint64
	var contexts []mdp.FeedContext
	var tapped int
	r := NewReceiver(ep, fc, func(got mdp.FeedContext, p *mdp.Packet) {
		mu.Lock()
		defer mu.Unlock()
		contexts = append(contexts, got)
		seqs = append(seqs, p.SeqNum)
	}, zaptest.NewLogger(t))
	r.SetTap(func(mdp.FeedContext, []byte) {
		mu.Lock()
		tapped++
		mu.Unlock()
	})

	require.True(t, ep.Send(mdp.EncodePacket(mdp.NewPacket(1))))
	require.True(t, ep.Send([]byte{0xff, 0xff}))
	require.True(t, ep.Send(mdp.EncodePacket(mdp.NewPacket(2))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) == 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []uint64{1, 2}, seqs)
	require.Equal(t, []mdp.FeedContext{fc, fc}, contexts)
	require.Equal(t, 3, tapped)
}

func TestChaosPassThrough(t *testing.T) {
	under := NewMemEndpoint(16)
	c := WrapChaos(under, ChaosConfig{Seed: 1})
	defer c.Close()

	require.True(t, under.Send([]byte("a")))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := c.Recv(ctx)
	require.True(t, ok)
	require.Equal(t, "a", string(got))
}

func TestChaosLossAndDup(t *testing.T) {
	t.Run("loss", func(t *testing.T) {
		under := NewMemEndpoint(16)
		c := WrapChaos(under, ChaosConfig{Loss: 1, Seed: 1})
		defer c.Close()

		require.True(t, under.Send([]byte("a")))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, ok := c.Recv(ctx)
		require.False(t, ok)
	})
	t.Run("dup", func(t *testing.T) {
		under := NewMemEndpoint(16)
		c := WrapChaos(under, ChaosConfig{Dup: 1, Seed: 1})
		defer c.Close()

		require.True(t, under.Send([]byte("a")))
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for i := 0; i < 2; i++ {
			got, ok := c.Recv(ctx)
			require.True(t, ok)
			require.Equal(t, "a", string(got))
		}
	})
}

func TestChaosReorderDelivers(t *testing.T) {
	under := NewMemEndpoint(64)
	c := WrapChaos(under, ChaosConfig{Reorder: 0.5, MaxDelay: 2 * time.Millisecond, Seed: 7})
	defer c.Close()

	for i := byte(0); i < 20; i++ {
		require.True(t, under.Send([]byte{i}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	seen := make(map[byte]bool)
	for len(seen) < 20 {
		got, ok := c.Recv(ctx)
		require.True(t, ok)
		seen[got[0]] = true
	}
}
