package transport

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// ChaosConfig describes the impairments applied to inbound datagrams.
type ChaosConfig struct {
	// Probabilities [0..1]
	Loss    float64
	Dup     float64
	Reorder float64

	// Reordered datagrams are held back by up to MaxDelay.
	MaxDelay time.Duration
	MaxQueue int

	// Seed (optional). If 0, uses time.Now().UnixNano()
	Seed int64
}

// Enabled reports whether any impairment is configured.
func (c ChaosConfig) Enabled() bool {
	return c.Loss > 0 || c.Dup > 0 || c.Reorder > 0
}

// ChaosEndpoint wraps an Endpoint and drops, duplicates and reorders what it
// receives. It is used to exercise gap recovery against a clean feed.
type ChaosEndpoint struct {
	under Endpoint
	cfg   ChaosConfig

	in     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rngMu sync.Mutex
	rng   *rand.Rand
}

func WrapChaos(under Endpoint, cfg ChaosConfig) *ChaosEndpoint {
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = 4096
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Millisecond
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.Loss = clamp01(cfg.Loss)
	cfg.Dup = clamp01(cfg.Dup)
	cfg.Reorder = clamp01(cfg.Reorder)

	c := &ChaosEndpoint{
		under: under,
		cfg:   cfg,
		in:    make(chan []byte, cfg.MaxQueue),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.wg.Add(1)
	go c.pump()
	return c
}

func (c *ChaosEndpoint) Recv(ctx context.Context) ([]byte, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-c.ctx.Done():
		return nil, false
	case b := <-c.in:
		return b, true
	}
}

func (c *ChaosEndpoint) Close() {
	c.cancel()
	c.under.Close()
	c.wg.Wait()
}

func (c *ChaosEndpoint) pump() {
	defer c.wg.Done()
	for {
		frame, ok := c.under.Recv(c.ctx)
		if !ok {
			return
		}
		if c.roll() < c.cfg.Loss {
			continue
		}
		c.deliver(frame)
		if c.roll() < c.cfg.Dup {
			c.deliver(clone(frame))
		}
	}
}

func (c *ChaosEndpoint) deliver(frame []byte) {
	if c.roll() >= c.cfg.Reorder {
		c.enqueue(frame)
		return
	}
	delay := c.delay()
	time.AfterFunc(delay, func() { c.enqueue(frame) })
}

func (c *ChaosEndpoint) enqueue(frame []byte) {
	select {
	case c.in <- frame:
	case <-c.ctx.Done():
	default:
		// drop if receiver queue full
	}
}

func (c *ChaosEndpoint) delay() time.Duration {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return time.Duration(c.rng.Int63n(int64(c.cfg.MaxDelay))) + 1
}

func (c *ChaosEndpoint) roll() float64 {
	c.rngMu.Lock()
	x := c.rng.Float64()
	c.rngMu.Unlock()
	return x
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
