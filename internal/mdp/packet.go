package mdp

import "time"

// Template IDs the feed handler inspects. Everything else is carried as an
// opaque message and forwarded untouched.
const (
	TemplateChannelReset        uint16 = 4
	TemplateIncrementalRefresh  uint16 = 32
	TemplateSnapshotFullRefresh uint16 = 38
	TemplateSnapshotOrderBook   uint16 = 53
)

// Feed identifies which of the redundant multicast lines delivered a packet.
type Feed uint8

const (
	FeedA Feed = iota
	FeedB
)

func (f Feed) String() string {
	if f == FeedB {
		return "B"
	}
	return "A"
}

// FeedType identifies the stream a packet came from.
type FeedType uint8

const (
	FeedIncremental FeedType = iota
	FeedSnapshot
	FeedReplay
)

func (t FeedType) String() string {
	switch t {
	case FeedIncremental:
		return "incremental"
	case FeedSnapshot:
		return "snapshot"
	case FeedReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// FeedContext travels with every packet handed to an applier.
type FeedContext struct {
	Feed Feed
	Type FeedType
}

func (c FeedContext) String() string {
	return c.Type.String() + ":" + c.Feed.String()
}

// Message is a single decoded message inside a packet. Only the header
// fields used for sequencing and snapshot bookkeeping are typed; the body is
// left for downstream consumers.
type Message struct {
	TemplateID             uint16
	SecurityID             int32
	RptSeq                 uint32
	LastMsgSeqNumProcessed uint32
	TotNumReports          uint32
	NoChunks               uint32
	CurrentChunk           uint32
	Body                   []byte
}

// IsSnapshot reports whether the message is a snapshot full refresh that
// participates in cycle tracking.
func (m *Message) IsSnapshot() bool {
	return m.TemplateID == TemplateSnapshotFullRefresh || m.TemplateID == TemplateSnapshotOrderBook
}

// Packet is a sequenced datagram as received from the exchange.
type Packet struct {
	SeqNum      uint64
	SendingTime time.Time
	Messages    []Message
}

// NewPacket is a convenience constructor used by tests and tooling.
func NewPacket(seq uint64, msgs ...Message) *Packet {
	return &Packet{SeqNum: seq, Messages: msgs}
}
