package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"hotel-portal/internal/models"
	"hotel-portal/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is the write side of the event stream
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing portal lifecycle events
type EventPublisher struct {
	writer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

// HotelKey partitions events by hotel so each hotel's events stay ordered
func HotelKey(hotelID int64) string {
	return fmt.Sprintf("hotel-%d", hotelID)
}

// PublishRequestEvent publishes a request lifecycle event
func (ep *EventPublisher) PublishRequestEvent(ctx context.Context, event *models.RequestEvent) error {
	return ep.writer.PublishEvent(ctx, HotelKey(event.HotelID), event)
}

// PublishRoomEvent publishes an occupancy or billing event
func (ep *EventPublisher) PublishRoomEvent(ctx context.Context, event *models.RoomEvent) error {
	return ep.writer.PublishEvent(ctx, HotelKey(event.HotelID), event)
}

// hotelEvent is the part of every portal event the handler routes on
type hotelEvent struct {
	models.BaseEvent
	HotelID int64 `json:"hotel_id"`
}

// EventHandler routes incoming portal events to registered callbacks
type EventHandler struct {
	onRequestEvent func(context.Context, *models.RequestEvent) error
	onRoomEvent    func(context.Context, *models.RoomEvent) error
	onHotelEvent   func(context.Context, string, int64) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnRequestEvent registers a handler for REQUEST_* events
func (eh *EventHandler) OnRequestEvent(handler func(context.Context, *models.RequestEvent) error) {
	eh.onRequestEvent = handler
}

// OnRoomEvent registers a handler for stay and room events
func (eh *EventHandler) OnRoomEvent(handler func(context.Context, *models.RoomEvent) error) {
	eh.onRoomEvent = handler
}

// OnHotelEvent registers a handler called for every event with its type and hotel
func (eh *EventHandler) OnHotelEvent(handler func(ctx context.Context, eventType string, hotelID int64) error) {
	eh.onHotelEvent = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var base hotelEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", base.EventType),
		zap.String("event_id", base.EventID))

	switch base.EventType {
	case models.EventTypeRequestCreated, models.EventTypeRequestAccepted,
		models.EventTypeRequestCompleted, models.EventTypeRequestCancelled:
		if eh.onRequestEvent != nil {
			var event models.RequestEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", base.EventType, err)
			}
			if err := eh.onRequestEvent(ctx, &event); err != nil {
				return err
			}
		}

	case models.EventTypeStayCheckedIn, models.EventTypeStayCheckedOut,
		models.EventTypeRoomReady, models.EventTypeStayPaid:
		if eh.onRoomEvent != nil {
			var event models.RoomEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", base.EventType, err)
			}
			if err := eh.onRoomEvent(ctx, &event); err != nil {
				return err
			}
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("event_type", base.EventType))
		return nil
	}

	if eh.onHotelEvent != nil && base.HotelID > 0 {
		return eh.onHotelEvent(ctx, base.EventType, base.HotelID)
	}
	return nil
}
