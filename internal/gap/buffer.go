package gap

import (
	"container/heap"
	"errors"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

var (
	ErrDuplicate  = errors.New("sequence already buffered")
	ErrBufferFull = errors.New("buffer full")
)

type bufferedPacket struct {
	fc     mdp.FeedContext
	packet *mdp.Packet
}

type packetHeap []bufferedPacket

func (h packetHeap) Len() int           { return len(h) }
func (h packetHeap) Less(i, j int) bool { return h[i].packet.SeqNum < h[j].packet.SeqNum }
func (h packetHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *packetHeap) Push(x any)        { *h = append(*h, x.(bufferedPacket)) }
func (h *packetHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = bufferedPacket{}
	*h = old[:n-1]
	return item
}

// Buffer holds incremental packets that cannot be applied yet, ordered by
// sequence number. A sequence number is held at most once.
//
// Buffer is not safe for concurrent use; the controller guards it.
type Buffer struct {
	items    packetHeap
	seqs     map[uint64]struct{}
	capacity int
}

// NewBuffer creates a buffer holding at most capacity packets. A capacity
// of zero or less means unbounded.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		seqs:     make(map[uint64]struct{}),
		capacity: capacity,
	}
}

// Add inserts p. It fails with ErrDuplicate if the sequence number is
// already held and ErrBufferFull if the buffer is at capacity.
func (b *Buffer) Add(fc mdp.FeedContext, p *mdp.Packet) error {
	if _, ok := b.seqs[p.SeqNum]; ok {
		return ErrDuplicate
	}
	if b.capacity > 0 && len(b.items) >= b.capacity {
		return ErrBufferFull
	}
	b.seqs[p.SeqNum] = struct{}{}
	heap.Push(&b.items, bufferedPacket{fc: fc, packet: p})
	return nil
}

// Remove takes the packet with the smallest sequence number.
func (b *Buffer) Remove() (mdp.FeedContext, *mdp.Packet, bool) {
	if len(b.items) == 0 {
		return mdp.FeedContext{}, nil, false
	}
	item := heap.Pop(&b.items).(bufferedPacket)
	delete(b.seqs, item.packet.SeqNum)
	return item.fc, item.packet, true
}

func (b *Buffer) IsEmpty() bool { return len(b.items) == 0 }

func (b *Buffer) Len() int { return len(b.items) }
