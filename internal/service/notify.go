package service

import (
	"context"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BoardNotifier pushes a fresh live board for a hotel. It must not fail the caller.
type BoardNotifier interface {
	NotifyHotel(ctx context.Context, hotelID int64)
}

// EventPublisher emits lifecycle events to the event stream
type EventPublisher interface {
	PublishRequestEvent(ctx context.Context, event *models.RequestEvent) error
	PublishRoomEvent(ctx context.Context, event *models.RoomEvent) error
}

// emitter fans a committed change out to the live board and the event stream.
// Either side may be nil.
type emitter struct {
	notifier  BoardNotifier
	publisher EventPublisher
	logger    *zap.Logger
}

func newEmitter(notifier BoardNotifier, publisher EventPublisher) emitter {
	return emitter{notifier: notifier, publisher: publisher, logger: util.GetLogger()}
}

func baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func (e emitter) requestChanged(ctx context.Context, r *models.Request, eventType string) {
	if e.publisher != nil {
		event := &models.RequestEvent{
			BaseEvent: baseEvent(eventType),
			RequestID: r.ID,
			HotelID:   r.HotelID,
			RoomID:    r.RoomID,
			StayID:    r.StayID,
			Kind:      r.Kind,
			Status:    r.Status,
			Subtotal:  r.Subtotal,
		}
		if err := e.publisher.PublishRequestEvent(ctx, event); err != nil {
			util.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
			e.logger.Error("Failed to publish request event",
				zap.String("event_type", eventType),
				zap.Int64("request_id", r.ID),
				zap.Error(err))
		} else {
			util.EventsPublishedTotal.WithLabelValues(eventType, "ok").Inc()
		}
	}
	e.notify(ctx, r.HotelID)
}

func (e emitter) roomChanged(ctx context.Context, eventType string, room *models.Room, stayID *int64, invoiceNo string) {
	if e.publisher != nil {
		event := &models.RoomEvent{
			BaseEvent:  baseEvent(eventType),
			HotelID:    room.HotelID,
			RoomID:     room.ID,
			StayID:     stayID,
			RoomStatus: room.Status,
			InvoiceNo:  invoiceNo,
		}
		if err := e.publisher.PublishRoomEvent(ctx, event); err != nil {
			util.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
			e.logger.Error("Failed to publish room event",
				zap.String("event_type", eventType),
				zap.Int64("room_id", room.ID),
				zap.Error(err))
		} else {
			util.EventsPublishedTotal.WithLabelValues(eventType, "ok").Inc()
		}
	}
	e.notify(ctx, room.HotelID)
}

func (e emitter) notify(ctx context.Context, hotelID int64) {
	if e.notifier != nil {
		e.notifier.NotifyHotel(ctx, hotelID)
	}
}
