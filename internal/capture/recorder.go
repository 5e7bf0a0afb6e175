package capture

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// Recorder appends records to a capture file. The file is written under a
// temporary name and only appears at its final path once Close succeeds.
type Recorder struct {
	path    string
	tmpPath string
	channel string
	logger  *zap.Logger

	mu     sync.Mutex
	f      *os.File
	bw     *bufio.Writer
	enc    *zstd.Encoder
	buf    []byte
	count  int
	closed bool
	err    error
}

// NewRecorder creates the capture file for channel under dir.
func NewRecorder(dir, channel string, logger *zap.Logger) (*Recorder, error) {
	path := Path(dir, channel, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating directories: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	bw := bufio.NewWriter(f)
	enc, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &Recorder{
		path:    path,
		tmpPath: tmpPath,
		channel: channel,
		logger:  logger.With(zap.String("channel", channel), zap.String("path", path)),
		f:       f,
		bw:      bw,
		enc:     enc,
	}, nil
}

// Path is the final location of the capture.
func (r *Recorder) Path() string { return r.path }

// Write appends one datagram. After the first write error every later call
// returns that error.
func (r *Recorder) Write(fc mdp.FeedContext, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.err != nil {
		return r.err
	}

	rec := Record{Channel: r.channel, Context: fc, ReceivedAt: time.Now(), Data: raw}
	r.buf = appendRecord(r.buf[:0], &rec)
	if err := mdp.WriteFrame(r.enc, r.buf); err != nil {
		r.err = fmt.Errorf("writing capture record: %w", err)
		r.logger.Error("capture write failed, recording stopped", zap.Error(err))
		return r.err
	}
	r.count++
	return nil
}

// Tap adapts the recorder to a transport tap. Write errors are logged once
// by Write and otherwise ignored.
func (r *Recorder) Tap(fc mdp.FeedContext, raw []byte) {
	_ = r.Write(fc, raw)
}

// Close flushes the capture and moves it to its final path. A capture that
// failed to write is removed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.err
	if closeErr := r.enc.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if flushErr := r.bw.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if closeErr := r.f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(r.tmpPath)
		return fmt.Errorf("finishing capture: %w", err)
	}

	// Atomic rename
	if err := os.Rename(r.tmpPath, r.path); err != nil {
		_ = os.Remove(r.tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	r.logger.Info("capture written", zap.Int("records", r.count))
	return nil
}
