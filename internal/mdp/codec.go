package mdp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameSize bounds a single length-prefixed frame.
const MaxFrameSize = 1 << 20

var (
	ErrMalformed     = errors.New("malformed packet")
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)

// Packet field numbers.
const (
	fieldSeqNum      protowire.Number = 1
	fieldSendingTime protowire.Number = 2
	fieldMessage     protowire.Number = 3
)

// Message field numbers.
const (
	fieldTemplateID    protowire.Number = 1
	fieldSecurityID    protowire.Number = 2
	fieldRptSeq        protowire.Number = 3
	fieldLastSeqNum    protowire.Number = 4
	fieldTotNumReports protowire.Number = 5
	fieldNoChunks      protowire.Number = 6
	fieldCurrentChunk  protowire.Number = 7
	fieldBody          protowire.Number = 15
)

// AppendPacket encodes p onto b using the protobuf wire format.
func AppendPacket(b []byte, p *Packet) []byte {
	b = protowire.AppendTag(b, fieldSeqNum, protowire.VarintType)
	b = protowire.AppendVarint(b, p.SeqNum)
	if !p.SendingTime.IsZero() {
		b = protowire.AppendTag(b, fieldSendingTime, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, uint64(p.SendingTime.UnixNano()))
	}
	var scratch []byte
	for i := range p.Messages {
		scratch = appendMessage(scratch[:0], &p.Messages[i])
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, scratch)
	}
	return b
}

// EncodePacket returns the wire encoding of p.
func EncodePacket(p *Packet) []byte {
	return AppendPacket(nil, p)
}

func appendMessage(b []byte, m *Message) []byte {
	b = appendUvarintField(b, fieldTemplateID, uint64(m.TemplateID))
	if m.SecurityID != 0 {
		b = protowire.AppendTag(b, fieldSecurityID, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(m.SecurityID)))
	}
	b = appendUvarintField(b, fieldRptSeq, uint64(m.RptSeq))
	b = appendUvarintField(b, fieldLastSeqNum, uint64(m.LastMsgSeqNumProcessed))
	b = appendUvarintField(b, fieldTotNumReports, uint64(m.TotNumReports))
	b = appendUvarintField(b, fieldNoChunks, uint64(m.NoChunks))
	b = appendUvarintField(b, fieldCurrentChunk, uint64(m.CurrentChunk))
	if len(m.Body) > 0 {
		b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Body)
	}
	return b
}

func appendUvarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// DecodePacket parses a datagram. Unknown fields are skipped so newer
// publishers stay readable.
func DecodePacket(b []byte) (*Packet, error) {
	p := &Packet{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldSeqNum && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: seq num: %v", ErrMalformed, protowire.ParseError(n))
			}
			p.SeqNum = v
			b = b[n:]
		case num == fieldSendingTime && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: sending time: %v", ErrMalformed, protowire.ParseError(n))
			}
			p.SendingTime = time.Unix(0, int64(v)).UTC()
			b = b[n:]
		case num == fieldMessage && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: message: %v", ErrMalformed, protowire.ParseError(n))
			}
			msg, err := decodeMessage(raw)
			if err != nil {
				return nil, fmt.Errorf("message %d: %w", len(p.Messages), err)
			}
			p.Messages = append(p.Messages, msg)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if p.SeqNum == 0 {
		return nil, fmt.Errorf("%w: missing sequence number", ErrMalformed)
	}
	return p, nil
}

func decodeMessage(b []byte) (Message, error) {
	var m Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return m, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldTemplateID:
				m.TemplateID = uint16(v)
			case fieldSecurityID:
				m.SecurityID = int32(protowire.DecodeZigZag(v))
			case fieldRptSeq:
				m.RptSeq = uint32(v)
			case fieldLastSeqNum:
				m.LastMsgSeqNumProcessed = uint32(v)
			case fieldTotNumReports:
				m.TotNumReports = uint32(v)
			case fieldNoChunks:
				m.NoChunks = uint32(v)
			case fieldCurrentChunk:
				m.CurrentChunk = uint32(v)
			}
			continue
		}

		if num == fieldBody && typ == protowire.BytesType {
			body, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return m, fmt.Errorf("%w: body: %v", ErrMalformed, protowire.ParseError(n))
			}
			m.Body = append([]byte(nil), body...)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return m, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}

// WriteFrame writes b prefixed with its big-endian uint32 length.
func WriteFrame(w io.Writer, b []byte) error {
	if len(b) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(b)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadFrame reads one frame written by WriteFrame. It returns io.EOF only
// when the stream ends cleanly on a frame boundary.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}
