package mdp

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestDecodePacket_SnapshotFields(t *testing.T) {
	sent := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	in := &Packet{
		SeqNum:      42,
		SendingTime: sent,
		Messages: []Message{
			{
				TemplateID:             TemplateSnapshotFullRefresh,
				SecurityID:             -17,
				LastMsgSeqNumProcessed: 1200,
				TotNumReports:          3,
				NoChunks:               2,
				CurrentChunk:           1,
				Body:                   []byte{0xde, 0xad},
			},
			{TemplateID: TemplateIncrementalRefresh, RptSeq: 9},
		},
	}

	out, err := DecodePacket(EncodePacket(in))
	require.NoError(t, err)
	require.Equal(t, uint64(42), out.SeqNum)
	require.True(t, sent.Equal(out.SendingTime))
	require.Len(t, out.Messages, 2)
	require.Equal(t, int32(-17), out.Messages[0].SecurityID)
	require.Equal(t, uint32(1200), out.Messages[0].LastMsgSeqNumProcessed)
	require.Equal(t, []byte{0xde, 0xad}, out.Messages[0].Body)
	require.True(t, out.Messages[0].IsSnapshot())
	require.False(t, out.Messages[1].IsSnapshot())
	require.Equal(t, uint32(9), out.Messages[1].RptSeq)
}

func TestDecodePacket_SkipsUnknownFields(t *testing.T) {
	b := EncodePacket(NewPacket(7))
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	p, err := DecodePacket(b)
	require.NoError(t, err)
	require.Equal(t, uint64(7), p.SeqNum)
}

func TestDecodePacket_Malformed(t *testing.T) {
	t.Run("missing sequence", func(t *testing.T) {
		_, err := DecodePacket(nil)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("truncated", func(t *testing.T) {
		b := EncodePacket(NewPacket(5, Message{TemplateID: TemplateIncrementalRefresh, Body: []byte("abc")}))
		_, err := DecodePacket(b[:len(b)-2])
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("one")))
	require.NoError(t, WriteFrame(&buf, []byte{}))
	require.NoError(t, WriteFrame(&buf, []byte("three")))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "one", string(got))

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "three", string(got))

	_, err = ReadFrame(&buf)
	require.True(t, errors.Is(err, io.EOF))
}

func TestReadFrame_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("payload")))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])

	_, err := ReadFrame(truncated)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriteFrame_TooLarge(t *testing.T) {
	err := WriteFrame(io.Discard, make([]byte, MaxFrameSize+1))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}
