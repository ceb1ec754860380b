package worker

import (
	"context"

	"hotel-portal/internal/broker"
	"hotel-portal/internal/models"
	"hotel-portal/internal/service"
	"hotel-portal/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageSource is a consumer that drives a handler until its context ends
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// BoardSyncWorker refreshes live boards from the portal event stream. With it
// running the services publish only events, and every instance sharing the
// consumer group sees each change once.
type BoardSyncWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	notifier     service.BoardNotifier
	logger       *zap.Logger
}

// NewBoardSyncWorker creates a new board sync worker
func NewBoardSyncWorker(consumer MessageSource, notifier service.BoardNotifier) *BoardSyncWorker {
	w := &BoardSyncWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnRequestEvent(w.onRequest)
	w.eventHandler.OnRoomEvent(w.onRoom)
	w.eventHandler.OnHotelEvent(w.refresh)
	return w
}

func (w *BoardSyncWorker) onRequest(ctx context.Context, e *models.RequestEvent) error {
	util.BoardSyncEventsTotal.WithLabelValues("request", e.Status).Inc()
	w.logger.Debug("Request event received",
		zap.String("event_id", e.EventID),
		zap.Int64("request_id", e.RequestID),
		zap.Int64("room_id", e.RoomID),
		zap.String("status", e.Status))
	return nil
}

func (w *BoardSyncWorker) onRoom(ctx context.Context, e *models.RoomEvent) error {
	util.BoardSyncEventsTotal.WithLabelValues("room", e.RoomStatus).Inc()
	w.logger.Debug("Room event received",
		zap.String("event_id", e.EventID),
		zap.Int64("room_id", e.RoomID),
		zap.String("room_status", e.RoomStatus))
	return nil
}

func (w *BoardSyncWorker) refresh(ctx context.Context, eventType string, hotelID int64) error {
	w.logger.Debug("Refreshing board from event",
		zap.String("event_type", eventType),
		zap.Int64("hotel_id", hotelID))
	w.notifier.NotifyHotel(ctx, hotelID)
	return nil
}

// Handle processes one stream message
func (w *BoardSyncWorker) Handle(ctx context.Context, msg kafka.Message) error {
	return w.eventHandler.HandleMessage(ctx, msg)
}

// Start starts the worker
func (w *BoardSyncWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting board sync worker")
	return w.consumer.StartConsuming(ctx, w.Handle)
}

// Stop stops the worker
func (w *BoardSyncWorker) Stop() error {
	w.logger.Info("Stopping board sync worker")
	return w.consumer.Close()
}
