package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// Config configures a TCPRequester.
type Config struct {
	Addr          string
	Channel       string
	DialTimeout   time.Duration
	RatePerSecond int
	Burst         int
	DialRetries   uint
	// MaxWindow caps the number of sequence numbers asked for in one
	// request. Zero disables the check.
	MaxWindow uint64
}

// TCPRequester asks a replay server for lost packets over a fresh TCP
// connection per request.
type TCPRequester struct {
	cfg     Config
	limiter *rate.Limiter
	dialer  net.Dialer
	logger  *zap.Logger
}

// NewTCPRequester creates a requester for one channel.
func NewTCPRequester(cfg Config, logger *zap.Logger) *TCPRequester {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RatePerSecond * 2
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.DialRetries == 0 {
		cfg.DialRetries = 1
	}
	return &TCPRequester{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		dialer:  net.Dialer{Timeout: cfg.DialTimeout},
		logger:  logger.With(zap.String("channel", cfg.Channel), zap.String("replay_addr", cfg.Addr)),
	}
}

// AskForLostMessages requests [begin, end] and hands every packet in range to
// l. It reports false without error when the server rejects the request or
// ends the stream before the whole range was delivered.
func (r *TCPRequester) AskForLostMessages(ctx context.Context, begin, end uint64, l gap.PacketListener) (bool, error) {
	if end < begin {
		return false, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, begin, end)
	}
	if r.cfg.MaxWindow > 0 && end-begin+1 > r.cfg.MaxWindow {
		r.logger.Warn("not requesting range larger than replay window",
			zap.Uint64("begin", begin),
			zap.Uint64("end", end),
			zap.Uint64("max_window", r.cfg.MaxWindow),
		)
		return false, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	conn, err := r.dial(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = conn.Close() }()

	// Unblock reads and writes when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	req := Request{
		ID:      uuid.New().String(),
		Channel: r.cfg.Channel,
		Begin:   begin,
		End:     end,
	}
	logger := r.logger.With(zap.String("request_id", req.ID))
	logger.Debug("sending replay request", zap.Uint64("begin", begin), zap.Uint64("end", end))

	if err := mdp.WriteFrame(conn, encodeRequest(req)); err != nil {
		return false, r.ioError(ctx, "writing request", err)
	}

	replayed, err := r.readStream(ctx, bufio.NewReader(conn), req, l, logger)
	if err != nil {
		return false, err
	}
	return replayed, nil
}

func (r *TCPRequester) dial(ctx context.Context) (net.Conn, error) {
	op := func() (net.Conn, error) {
		conn, err := r.dialer.DialContext(ctx, "tcp", r.cfg.Addr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		return conn, nil
	}
	notify := func(err error, next time.Duration) {
		r.logger.Debug("replay dial failed, retrying", zap.Error(err), zap.Duration("delay", next))
	}

	conn, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(r.cfg.DialRetries),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing replay server: %w", err)
	}
	return conn, nil
}

func (r *TCPRequester) readStream(ctx context.Context, br *bufio.Reader, req Request, l gap.PacketListener, logger *zap.Logger) (bool, error) {
	fc := mdp.FeedContext{Feed: mdp.FeedA, Type: mdp.FeedReplay}
	want := req.End - req.Begin + 1
	seen := make(map[uint64]struct{}, want)

	for {
		frame, err := mdp.ReadFrame(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return false, r.ioError(ctx, "reading response", err)
		}
		resp, err := decodeResponse(frame)
		if err != nil {
			return false, err
		}

		switch resp.Kind {
		case KindPacket:
			seq := resp.Packet.SeqNum
			if seq < req.Begin || seq > req.End {
				logger.Debug("ignoring replayed packet outside range", zap.Uint64("seq", seq))
				continue
			}
			seen[seq] = struct{}{}
			l.OnPacket(fc, resp.Packet)
		case KindReject:
			logger.Warn("replay request rejected", zap.String("reason", resp.Reason))
			return false, nil
		case KindDone:
			if uint64(len(seen)) != want {
				logger.Warn("replay incomplete",
					zap.Int("received", len(seen)),
					zap.Uint64("wanted", want),
				)
				return false, nil
			}
			logger.Debug("replay complete", zap.Uint64("packets", want))
			return true, nil
		}
	}
}

func (r *TCPRequester) ioError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ gap.Requester = (*TCPRequester)(nil)
