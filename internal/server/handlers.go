package server

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/api/generated"
	"github.com/dgnsrekt/mdfeed/internal/feed"
)

// Channel is the view of a running channel the admin API needs.
type Channel interface {
	ID() string
	Stats() feed.Stats
}

type Server struct {
	channels map[string]Channel
	order    []string
	logger   *zap.Logger
}

func NewServer(channels []Channel, logger *zap.Logger) *Server {
	s := &Server{
		channels: make(map[string]Channel, len(channels)),
		logger:   logger,
	}
	for _, ch := range channels {
		s.channels[ch.ID()] = ch
		s.order = append(s.order, ch.ID())
	}
	sort.Strings(s.order)
	return s
}

// Compile-time interface verification
var _ generated.StrictServerInterface = (*Server)(nil)

// GetHealth implements generated.StrictServerInterface. It always answers
// 200 while the process is serving.
func (s *Server) GetHealth(ctx context.Context, request generated.GetHealthRequestObject) (generated.GetHealthResponseObject, error) {
	return generated.GetHealth200JSONResponse(s.health("ok")), nil
}

// GetReadiness implements generated.StrictServerInterface. It answers 200
// only when every channel is in SYNC.
func (s *Server) GetReadiness(ctx context.Context, request generated.GetReadinessRequestObject) (generated.GetReadinessResponseObject, error) {
	resp := s.health("ready")
	if resp.States[string(generated.SYNC)] != len(s.channels) {
		resp.Status = "not ready"
		return generated.GetReadiness503JSONResponse(resp), nil
	}
	return generated.GetReadiness200JSONResponse(resp), nil
}

// ListChannels implements generated.StrictServerInterface
func (s *Server) ListChannels(ctx context.Context, request generated.ListChannelsRequestObject) (generated.ListChannelsResponseObject, error) {
	out := make(generated.ListChannels200JSONResponse, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, channelStats(id, s.channels[id].Stats()))
	}
	return out, nil
}

// GetChannel implements generated.StrictServerInterface
func (s *Server) GetChannel(ctx context.Context, request generated.GetChannelRequestObject) (generated.GetChannelResponseObject, error) {
	ch, ok := s.channels[request.Id]
	if !ok {
		s.logger.Debug("unknown channel requested", zap.String("channel", request.Id))
		return generated.GetChannel404JSONResponse{
			Error: ptr("unknown channel " + request.Id),
		}, nil
	}
	return generated.GetChannel200JSONResponse(channelStats(request.Id, ch.Stats())), nil
}

func (s *Server) health(status string) generated.HealthResponse {
	counts := make(map[string]int)
	for _, ch := range s.channels {
		counts[ch.Stats().Status.State.String()]++
	}
	return generated.HealthResponse{
		Status:   status,
		Channels: len(s.channels),
		States:   counts,
	}
}

func channelStats(id string, st feed.Stats) generated.ChannelStats {
	return generated.ChannelStats{
		Id: id,
		Status: generated.ChannelStatus{
			ChannelId:                st.Status.ChannelID,
			State:                    generated.ChannelStatusState(st.Status.State.String()),
			LastProcessedSeqNum:      st.Status.LastProcessedSeqNum,
			SmallestSnapshotSequence: st.Status.SmallestSnapshotSequence,
			HighestSnapshotSequence:  st.Status.HighestSnapshotSequence,
			Buffered:                 st.Status.Buffered,
			Attempts:                 st.Status.Attempts,
			ReceivingCycle:           st.Status.ReceivingCycle,
		},
		Primary:         feedCounts(st.Primary),
		Secondary:       feedCounts(st.Secondary),
		RecoveryActive:  st.RecoveryActive,
		RecoveryStarts:  st.RecoveryStarts,
		ReplayAvailable: st.ReplayAvailable,
	}
}

func feedCounts(c feed.Counts) generated.FeedCounts {
	return generated.FeedCounts{
		Incremental: c.Incremental,
		Snapshot:    c.Snapshot,
		Messages:    c.Messages,
		LastSeqNum:  c.LastSeqNum,
		Violations:  c.Violations,
		Jumps:       c.Jumps,
	}
}

func ptr[T any](v T) *T {
	return &v
}
