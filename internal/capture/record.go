// Package capture records raw feed datagrams to zstd-compressed files and
// reads them back for offline replay.
package capture

import (
	"fmt"
	"path/filepath"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// Extension is appended to every capture file name.
const Extension = ".mdcap.zst"

// Record is one datagram as it arrived on a feed.
type Record struct {
	Channel    string
	Context    mdp.FeedContext
	ReceivedAt time.Time
	Data       []byte
}

const (
	fieldChannel    protowire.Number = 1
	fieldFeed       protowire.Number = 2
	fieldFeedType   protowire.Number = 3
	fieldReceivedAt protowire.Number = 4
	fieldData       protowire.Number = 5
)

// Path returns the file a channel's capture started at t is written to.
func Path(dir, channel string, t time.Time) string {
	t = t.UTC()
	name := fmt.Sprintf("%s-%s%s", channel, t.Format("150405"), Extension)
	return filepath.Join(dir, t.Format("2006-01-02"), name)
}

func appendRecord(b []byte, r *Record) []byte {
	b = protowire.AppendTag(b, fieldChannel, protowire.BytesType)
	b = protowire.AppendString(b, r.Channel)
	b = protowire.AppendTag(b, fieldFeed, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Context.Feed))
	b = protowire.AppendTag(b, fieldFeedType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Context.Type))
	b = protowire.AppendTag(b, fieldReceivedAt, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, uint64(r.ReceivedAt.UnixNano()))
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Data)
	return b
}

func decodeRecord(b []byte) (Record, error) {
	var r Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("%w: %v", ErrCorruptFrame, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldChannel && typ == protowire.BytesType:
			r.Channel, n = protowire.ConsumeString(b)
		case num == fieldFeed && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			r.Context.Feed = mdp.Feed(v)
		case num == fieldFeedType && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			r.Context.Type = mdp.FeedType(v)
		case num == fieldReceivedAt && typ == protowire.Fixed64Type:
			var v uint64
			v, n = protowire.ConsumeFixed64(b)
			r.ReceivedAt = time.Unix(0, int64(v)).UTC()
		case num == fieldData && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			r.Data = append([]byte(nil), v...)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return r, fmt.Errorf("%w: field %d: %v", ErrCorruptFrame, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return r, nil
}
