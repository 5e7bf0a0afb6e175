package replay

import (
	"sync"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// MemoryStore keeps the most recent packets of each channel in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	depth    uint64
	channels map[string]*history
}

type history struct {
	packets map[uint64]*mdp.Packet
	lowest  uint64
	highest uint64
}

// NewMemoryStore keeps up to depth packets per channel.
func NewMemoryStore(depth uint64) *MemoryStore {
	if depth == 0 {
		depth = 1
	}
	return &MemoryStore{
		depth:    depth,
		channels: make(map[string]*history),
	}
}

// Add records p for channel, evicting anything older than the retained
// depth.
func (s *MemoryStore) Add(channel string, p *mdp.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.channels[channel]
	if !ok {
		h = &history{packets: make(map[uint64]*mdp.Packet), lowest: p.SeqNum}
		s.channels[channel] = h
	}
	if h.highest > s.depth && p.SeqNum <= h.highest-s.depth {
		return
	}
	h.packets[p.SeqNum] = p
	if p.SeqNum < h.lowest {
		h.lowest = p.SeqNum
	}
	if p.SeqNum > h.highest {
		h.highest = p.SeqNum
	}
	for h.highest-h.lowest >= s.depth {
		delete(h.packets, h.lowest)
		h.lowest++
	}
}

// Range returns the packets in [begin, end] in order. Every sequence number
// in the range must be held.
func (s *MemoryStore) Range(channel string, begin, end uint64) ([]*mdp.Packet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.channels[channel]
	if !ok {
		return nil, ErrUnknownChannel
	}
	if end-begin >= uint64(len(h.packets)) {
		return nil, ErrUnavailable
	}
	out := make([]*mdp.Packet, 0, end-begin+1)
	for seq := begin; seq <= end; seq++ {
		p, ok := h.packets[seq]
		if !ok {
			return nil, ErrUnavailable
		}
		out = append(out, p)
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
