package gap

// securityChunks is the coverage collected for one security in the current
// snapshot loop.
type securityChunks struct {
	lastSeq  uint64
	chunks   uint64
	received map[uint64]struct{}
}

func (s *securityChunks) complete() bool {
	return uint64(len(s.received)) == s.chunks
}

// SnapshotCycle implements CycleTracker. A loop is consistent once every
// security announced in it has delivered all of its chunks and the number of
// chunk reports seen matches the loop's total report count.
type SnapshotCycle struct {
	securities   map[int32]*securityChunks
	totalReports uint64
	received     uint64
}

// NewSnapshotCycle returns an empty tracker.
func NewSnapshotCycle() *SnapshotCycle {
	return &SnapshotCycle{securities: make(map[int32]*securityChunks)}
}

// Reset forgets everything collected so far.
func (c *SnapshotCycle) Reset() {
	c.securities = make(map[int32]*securityChunks)
	c.totalReports = 0
	c.received = 0
}

// Update records one snapshot chunk. It returns false when the chunk fields
// are inconsistent and the report was ignored.
//
// A security re-announced at a different as-of sequence or chunk count
// starts over, since chunks captured at different points cannot be merged.
func (c *SnapshotCycle) Update(totalReports, lastSeq uint64, securityID int32, chunks, currentChunk uint64) bool {
	if totalReports == 0 || chunks == 0 || currentChunk == 0 || currentChunk > chunks {
		return false
	}
	c.totalReports = totalReports

	sec, ok := c.securities[securityID]
	if ok && (sec.lastSeq != lastSeq || sec.chunks != chunks) {
		c.received -= uint64(len(sec.received))
		ok = false
	}
	if !ok {
		sec = &securityChunks{
			lastSeq:  lastSeq,
			chunks:   chunks,
			received: make(map[uint64]struct{}, chunks),
		}
		c.securities[securityID] = sec
	}

	if _, dup := sec.received[currentChunk]; dup {
		return true
	}
	sec.received[currentChunk] = struct{}{}
	c.received++
	return true
}

func (c *SnapshotCycle) consistent() bool {
	if c.totalReports == 0 || c.received != c.totalReports {
		return false
	}
	for _, sec := range c.securities {
		if !sec.complete() {
			return false
		}
	}
	return true
}

// SmallestSnapshotSequence is the lowest as-of sequence in a consistent loop.
func (c *SnapshotCycle) SmallestSnapshotSequence() (uint64, bool) {
	if !c.consistent() {
		return 0, false
	}
	first := true
	var smallest uint64
	for _, sec := range c.securities {
		if first || sec.lastSeq < smallest {
			smallest = sec.lastSeq
			first = false
		}
	}
	return smallest, true
}

// HighestSnapshotSequence is the highest as-of sequence in a consistent loop.
func (c *SnapshotCycle) HighestSnapshotSequence() (uint64, bool) {
	if !c.consistent() {
		return 0, false
	}
	var highest uint64
	for _, sec := range c.securities {
		if sec.lastSeq > highest {
			highest = sec.lastSeq
		}
	}
	return highest, true
}

var _ CycleTracker = (*SnapshotCycle)(nil)
