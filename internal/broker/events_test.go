package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hotel-portal/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	key   string
	value []byte
}

type fakeWriter struct {
	events []recordedEvent
	err    error
}

func (w *fakeWriter) PublishEvent(ctx context.Context, key string, event interface{}) error {
	if w.err != nil {
		return w.err
	}
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	w.events = append(w.events, recordedEvent{key: key, value: b})
	return nil
}

func TestEventPublisher_KeysByHotel(t *testing.T) {
	w := &fakeWriter{}
	ep := NewEventPublisher(w)
	ctx := context.Background()

	require.NoError(t, ep.PublishRequestEvent(ctx, &models.RequestEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeRequestCreated, Timestamp: time.Now()},
		RequestID: 10,
		HotelID:   3,
		Subtotal:  12550,
	}))
	require.NoError(t, ep.PublishRoomEvent(ctx, &models.RoomEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeStayPaid},
		HotelID:   4,
		InvoiceNo: "INV-000001",
	}))

	require.Len(t, w.events, 2)
	assert.Equal(t, "hotel-3", w.events[0].key)
	assert.Contains(t, string(w.events[0].value), `"subtotal":125.50`)
	assert.Equal(t, "hotel-4", w.events[1].key)
	assert.Contains(t, string(w.events[1].value), `"invoice_no":"INV-000001"`)
}

func TestEventPublisher_PropagatesWriterError(t *testing.T) {
	boom := errors.New("broker down")
	ep := NewEventPublisher(&fakeWriter{err: boom})
	err := ep.PublishRoomEvent(context.Background(), &models.RoomEvent{HotelID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestEventHandler_Routes(t *testing.T) {
	w := &fakeWriter{}
	ep := NewEventPublisher(w)
	ctx := context.Background()
	require.NoError(t, ep.PublishRequestEvent(ctx, &models.RequestEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeRequestAccepted},
		RequestID: 5, HotelID: 2,
	}))
	require.NoError(t, ep.PublishRoomEvent(ctx, &models.RoomEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeRoomReady},
		RoomID:    8, HotelID: 2,
	}))

	var gotRequest *models.RequestEvent
	var gotRoom *models.RoomEvent
	var hotels []int64
	eh := NewEventHandler()
	eh.OnRequestEvent(func(ctx context.Context, e *models.RequestEvent) error {
		gotRequest = e
		return nil
	})
	eh.OnRoomEvent(func(ctx context.Context, e *models.RoomEvent) error {
		gotRoom = e
		return nil
	})
	eh.OnHotelEvent(func(ctx context.Context, eventType string, hotelID int64) error {
		hotels = append(hotels, hotelID)
		return nil
	})

	for _, ev := range w.events {
		require.NoError(t, eh.HandleMessage(ctx, kafka.Message{Key: []byte(ev.key), Value: ev.value}))
	}
	require.NotNil(t, gotRequest)
	assert.Equal(t, int64(5), gotRequest.RequestID)
	require.NotNil(t, gotRoom)
	assert.Equal(t, int64(8), gotRoom.RoomID)
	assert.Equal(t, []int64{2, 2}, hotels)

	assert.NoError(t, eh.HandleMessage(ctx, kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE","hotel_id":2}`)}))
	assert.Len(t, hotels, 2)
	assert.Error(t, eh.HandleMessage(ctx, kafka.Message{Value: []byte(`not json`)}))
}
