package feed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/capture"
	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/mdp"
)

// RecordSource yields captured datagrams in arrival order. Next returns
// io.EOF after the last record.
type RecordSource interface {
	Next() (capture.Record, error)
}

// Report summarizes an offline run of a capture through a controller.
type Report struct {
	Records        uint64     `json:"records"`
	Skipped        uint64     `json:"skipped"`
	Malformed      uint64     `json:"malformed"`
	Status         gap.Status `json:"status"`
	Primary        Counts     `json:"primary"`
	Secondary      Counts     `json:"secondary"`
	RecoveryStarts uint64     `json:"recovery_starts"`
}

// Replay feeds every record of src belonging to cfg.ChannelID through a
// fresh controller, the same way the live receivers would. There is no
// replay service offline, so every gap falls back to the snapshot loop.
func Replay(ctx context.Context, src RecordSource, cfg gap.Config, logger *zap.Logger) (Report, error) {
	logger = logger.With(zap.String("channel", cfg.ChannelID))
	gate := NewSnapshotGate(logger)
	primary := NewApplier(cfg.ChannelID, "primary", nil, nil, logger)
	secondary := NewApplier(cfg.ChannelID, "secondary", nil, nil, logger)
	ctrl := gap.NewController(cfg, primary, secondary, gate, logger)
	gate.bind(ctrl.HandleSnapshotPacket)
	gate.StartRecovery()

	var rep Report
	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rep, fmt.Errorf("reading record %d: %w", rep.Records+rep.Skipped+1, err)
		}
		if cfg.ChannelID != "" && rec.Channel != cfg.ChannelID {
			rep.Skipped++
			continue
		}
		rep.Records++

		p, err := mdp.DecodePacket(rec.Data)
		if err != nil {
			rep.Malformed++
			continue
		}
		if rec.Context.Type == mdp.FeedSnapshot {
			gate.Handle(rec.Context, p)
		} else {
			ctrl.HandleIncrementalPacket(rec.Context, p)
		}
	}

	ctrl.PreClose()
	rep.Status = ctrl.Status()
	ctrl.Close()
	rep.Primary = primary.Counts()
	rep.Secondary = secondary.Counts()
	rep.RecoveryStarts = gate.Starts()
	return rep, nil
}
