// Package replay implements the TCP retransmission service used to recover
// short runs of lost incremental packets.
package replay

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// Request asks for the packets of one channel in [Begin, End].
type Request struct {
	ID      string
	Channel string
	Begin   uint64
	End     uint64
}

// ResponseKind tags each frame the server sends back.
type ResponseKind uint8

const (
	KindPacket ResponseKind = iota + 1
	KindDone
	KindReject
)

// Response is one frame of a replay stream. A stream is zero or more
// KindPacket frames followed by exactly one KindDone or KindReject.
type Response struct {
	Kind   ResponseKind
	Packet *mdp.Packet
	Reason string
}

const (
	fieldRequestID      protowire.Number = 1
	fieldRequestChannel protowire.Number = 2
	fieldRequestBegin   protowire.Number = 3
	fieldRequestEnd     protowire.Number = 4

	fieldResponseKind   protowire.Number = 1
	fieldResponsePacket protowire.Number = 2
	fieldResponseReason protowire.Number = 3
)

func encodeRequest(r Request) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldRequestID, protowire.BytesType)
	b = protowire.AppendString(b, r.ID)
	b = protowire.AppendTag(b, fieldRequestChannel, protowire.BytesType)
	b = protowire.AppendString(b, r.Channel)
	b = protowire.AppendTag(b, fieldRequestBegin, protowire.VarintType)
	b = protowire.AppendVarint(b, r.Begin)
	b = protowire.AppendTag(b, fieldRequestEnd, protowire.VarintType)
	b = protowire.AppendVarint(b, r.End)
	return b
}

func decodeRequest(b []byte) (Request, error) {
	var r Request
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("%w: request tag: %v", ErrProtocol, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldRequestID && typ == protowire.BytesType:
			r.ID, n = protowire.ConsumeString(b)
		case num == fieldRequestChannel && typ == protowire.BytesType:
			r.Channel, n = protowire.ConsumeString(b)
		case num == fieldRequestBegin && typ == protowire.VarintType:
			r.Begin, n = protowire.ConsumeVarint(b)
		case num == fieldRequestEnd && typ == protowire.VarintType:
			r.End, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return r, fmt.Errorf("%w: request field %d: %v", ErrProtocol, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return r, nil
}

func encodeResponse(r Response) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldResponseKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Kind))
	if r.Packet != nil {
		b = protowire.AppendTag(b, fieldResponsePacket, protowire.BytesType)
		b = protowire.AppendBytes(b, mdp.EncodePacket(r.Packet))
	}
	if r.Reason != "" {
		b = protowire.AppendTag(b, fieldResponseReason, protowire.BytesType)
		b = protowire.AppendString(b, r.Reason)
	}
	return b
}

func decodeResponse(b []byte) (Response, error) {
	var r Response
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("%w: response tag: %v", ErrProtocol, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldResponseKind && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			r.Kind = ResponseKind(v)
		case num == fieldResponsePacket && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				p, err := mdp.DecodePacket(raw)
				if err != nil {
					return r, fmt.Errorf("decoding replayed packet: %w", err)
				}
				r.Packet = p
			}
		case num == fieldResponseReason && typ == protowire.BytesType:
			r.Reason, n = protowire.ConsumeString(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return r, fmt.Errorf("%w: response field %d: %v", ErrProtocol, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	switch r.Kind {
	case KindPacket:
		if r.Packet == nil {
			return r, fmt.Errorf("%w: packet frame without packet", ErrProtocol)
		}
	case KindDone, KindReject:
	default:
		return r, fmt.Errorf("%w: unknown response kind %d", ErrProtocol, r.Kind)
	}
	return r, nil
}
