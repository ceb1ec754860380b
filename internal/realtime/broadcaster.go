package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"hotel-portal/internal/board"
	"hotel-portal/internal/models"
	"hotel-portal/internal/util"

	"go.uber.org/zap"
)

// Message types on the live channel
const (
	TypeBoardState = "board_state"
	TypeBoardPush  = "board_push"
)

// Envelope is one frame sent to a live connection
type Envelope struct {
	Type string          `json:"type"`
	Data *board.Snapshot `json:"data"`
}

// SnapshotBuilder produces board snapshots
type SnapshotBuilder interface {
	Build(ctx context.Context, scope models.Scope) (*board.Snapshot, error)
}

// Broadcaster pushes a hotel's board to its group and the global group
type Broadcaster struct {
	builder SnapshotBuilder
	bus     Bus
	logger  *zap.Logger
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster(builder SnapshotBuilder, bus Bus) *Broadcaster {
	return &Broadcaster{
		builder: builder,
		bus:     bus,
		logger:  util.GetLogger(),
	}
}

// Snapshot builds the board for a scope
func (b *Broadcaster) Snapshot(ctx context.Context, scope models.Scope) (*board.Snapshot, error) {
	return b.builder.Build(ctx, scope)
}

// Encode marshals a snapshot into an envelope frame
func Encode(msgType string, snap *board.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(Envelope{Type: msgType, Data: snap})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}
	return payload, nil
}

// Broadcast publishes the hotel's board. Failures are returned wrapped in ErrUnavailable.
func (b *Broadcaster) Broadcast(ctx context.Context, hotelID int64) error {
	ctx, span := util.StartSpan(ctx, "Broadcaster.Broadcast")
	defer span.End()

	snap, err := b.builder.Build(ctx, models.HotelScope(hotelID))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	payload, err := Encode(TypeBoardPush, snap)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	for _, group := range []string{GroupForHotel(hotelID), GroupAll} {
		if err := b.bus.Publish(ctx, group, payload); err != nil {
			return fmt.Errorf("%w: publish to %s: %v", models.ErrUnavailable, group, err)
		}
	}
	return nil
}

// NotifyHotel broadcasts and swallows the error after logging it
func (b *Broadcaster) NotifyHotel(ctx context.Context, hotelID int64) {
	if err := b.Broadcast(ctx, hotelID); err != nil {
		util.BroadcastsTotal.WithLabelValues("error").Inc()
		b.logger.Warn("Board broadcast failed",
			zap.Int64("hotel_id", hotelID),
			zap.Error(err))
		return
	}
	util.BroadcastsTotal.WithLabelValues("ok").Inc()
}
