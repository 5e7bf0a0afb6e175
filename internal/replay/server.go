package replay

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

const writeWait = 5 * time.Second

// Store looks up recent packets for a channel.
type Store interface {
	Range(channel string, begin, end uint64) ([]*mdp.Packet, error)
}

// Server answers replay requests from a Store. Each connection carries
// requests one after another.
type Server struct {
	store     Store
	maxWindow uint64
	logger    *zap.Logger

	wg sync.WaitGroup
}

// NewServer creates a server. A maxWindow of zero accepts any range size.
func NewServer(store Store, maxWindow uint64, logger *zap.Logger) *Server {
	return &Server{
		store:     store,
		maxWindow: maxWindow,
		logger:    logger,
	}
}

// Serve accepts connections until ctx is cancelled, then waits for open
// connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.wg.Wait()

	s.logger.Info("replay server listening", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting replay connection: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger := s.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	br := bufio.NewReader(conn)
	for {
		frame, err := mdp.ReadFrame(br)
		if err != nil {
			return
		}
		req, err := decodeRequest(frame)
		if err != nil {
			logger.Warn("bad replay request", zap.Error(err))
			return
		}
		if err := s.serveRequest(conn, req, logger); err != nil {
			logger.Debug("replay stream aborted", zap.String("request_id", req.ID), zap.Error(err))
			return
		}
	}
}

func (s *Server) serveRequest(conn net.Conn, req Request, logger *zap.Logger) error {
	logger = logger.With(
		zap.String("request_id", req.ID),
		zap.String("channel", req.Channel),
		zap.Uint64("begin", req.Begin),
		zap.Uint64("end", req.End),
	)

	packets, err := s.lookup(req)
	if err != nil {
		logger.Info("rejecting replay request", zap.Error(err))
		return s.send(conn, Response{Kind: KindReject, Reason: err.Error()})
	}

	for _, p := range packets {
		if err := s.send(conn, Response{Kind: KindPacket, Packet: p}); err != nil {
			return err
		}
	}
	logger.Debug("replay served", zap.Int("packets", len(packets)))
	return s.send(conn, Response{Kind: KindDone})
}

func (s *Server) lookup(req Request) ([]*mdp.Packet, error) {
	if req.Begin == 0 || req.End < req.Begin {
		return nil, ErrInvalidRange
	}
	if s.maxWindow > 0 && req.End-req.Begin+1 > s.maxWindow {
		return nil, ErrWindowTooLarge
	}
	return s.store.Range(req.Channel, req.Begin, req.End)
}

func (s *Server) send(conn net.Conn, resp Response) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := mdp.WriteFrame(conn, encodeResponse(resp))
	_ = conn.SetWriteDeadline(time.Time{})
	if err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
