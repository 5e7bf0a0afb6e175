package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// Reader iterates over the records of a capture file.
type Reader struct {
	f   *os.File
	dec *zstd.Decoder
	br  *bufio.Reader
}

// Open opens a finished capture.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Reader{f: f, dec: dec, br: bufio.NewReader(dec)}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	frame, err := mdp.ReadFrame(r.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
	}
	return decodeRecord(frame)
}

func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}
