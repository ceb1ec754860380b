package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{"12", 1200},
		{"12.5", 1250},
		{"12.50", 1250},
		{" 0.01 ", 1},
		{"125.499", 12550},
		{"1.005", 101},
		{"1.0049", 100},
		{"2.675", 268},
		{"-1.005", -101},
		{"1e2", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMoney("")
	assert.Error(t, err)
	_, err = ParseMoney("abc")
	assert.Error(t, err)
	_, err = ParseMoney("1/3")
	assert.Error(t, err)
}

func TestMoney_FormatAndJSON(t *testing.T) {
	assert.Equal(t, "125.50", Money(12550).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.20", Money(-120).String())
	assert.InDelta(t, 125.5, Money(12550).Float(), 0.0001)

	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 10000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 100.00}`, string(b))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "3.25"}`), &in))
	assert.Equal(t, Money(1250), in.A)
	assert.Equal(t, Money(325), in.B)
}

func TestMoney_PercentBP(t *testing.T) {
	assert.Equal(t, Money(500), Money(10000).PercentBP(500))
	assert.Equal(t, Money(1800), Money(10000).PercentBP(1800))
	assert.Equal(t, Money(1), Money(10).PercentBP(500))
	assert.Equal(t, Money(0), Money(9).PercentBP(500))
	assert.Equal(t, Money(0), Money(10000).PercentBP(0))
}

func TestSnapshotCart(t *testing.T) {
	snap := SnapshotCart(7, []CartItem{
		{ItemID: 1, Qty: 2, PriceSnapshot: 5000},
		{ItemID: 2, Qty: 1, PriceSnapshot: 12000},
	})
	assert.Equal(t, int64(7), snap.CartID)
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, Money(22000), snap.Total)

	empty := SnapshotCart(0, nil)
	assert.NotNil(t, empty.Lines)
	assert.Zero(t, empty.Total)
}

func TestRequestApply(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		from    string
		action  Action
		want    string
		wantErr error
	}{
		{"accept new", RequestStatusNew, ActionAccept, RequestStatusAccepted, nil},
		{"accept accepted", RequestStatusAccepted, ActionAccept, RequestStatusAccepted, ErrConflict},
		{"complete accepted", RequestStatusAccepted, ActionComplete, RequestStatusCompleted, nil},
		{"complete new", RequestStatusNew, ActionComplete, RequestStatusNew, ErrConflict},
		{"cancel new", RequestStatusNew, ActionCancel, RequestStatusCancelled, nil},
		{"cancel accepted", RequestStatusAccepted, ActionCancel, RequestStatusCancelled, nil},
		{"cancel completed", RequestStatusCompleted, ActionCancel, RequestStatusCompleted, ErrConflict},
		{"cancel cancelled", RequestStatusCancelled, ActionCancel, RequestStatusCancelled, ErrConflict},
		{"unknown", RequestStatusNew, Action("reopen"), RequestStatusNew, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Request{Status: tt.from}
			err := r.Apply(tt.action, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, r.UpdatedAt.IsZero())
			} else {
				require.NoError(t, err)
				assert.Equal(t, now, r.UpdatedAt)
			}
			assert.Equal(t, tt.want, r.Status)
		})
	}
}

func TestRequestApply_StampsTimestamps(t *testing.T) {
	accepted := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	completed := accepted.Add(10 * time.Minute)

	r := &Request{Status: RequestStatusNew}
	require.NoError(t, r.Apply(ActionAccept, accepted))
	require.NoError(t, r.Apply(ActionComplete, completed))

	require.NotNil(t, r.AcceptedAt)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, accepted, *r.AcceptedAt)
	assert.Equal(t, completed, *r.CompletedAt)
	assert.Nil(t, r.CancelledAt)
	assert.False(t, r.IsOpen())
	assert.True(t, r.Billable())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("accept")
	require.NoError(t, err)
	assert.Equal(t, ActionAccept, a)

	_, err = ParseAction("ACCEPT")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTruncateNote(t *testing.T) {
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'é'
	}
	assert.Len(t, []rune(TruncateNote(string(long))), 200)
	assert.Equal(t, "short", TruncateNote("short"))
}

func TestDisplayName(t *testing.T) {
	name := "Extra Towels"
	assert.Equal(t, name, (&Request{ServiceItemName: &name, Note: "n"}).DisplayName())
	assert.Equal(t, "n", (&Request{Note: "n"}).DisplayName())
	assert.Equal(t, "Service", (&Request{}).DisplayName())
}

func TestSubscriptionExpired(t *testing.T) {
	exp := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	h := &Hotel{SubscriptionExpiresOn: &exp}

	assert.False(t, h.SubscriptionExpired(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)))
	assert.False(t, h.SubscriptionExpired(time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, h.SubscriptionExpired(time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)))
	assert.False(t, (&Hotel{}).SubscriptionExpired(time.Now()))
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC) // 01:30 on the 11th in IST

	start, next := DayBounds(at, loc)
	assert.True(t, start.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)))
	assert.True(t, next.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, loc)))
}

func TestScope(t *testing.T) {
	assert.True(t, AllHotels().Global())
	assert.True(t, AllHotels().Allows(42))
	assert.True(t, HotelScope(1).Allows(1))
	assert.False(t, HotelScope(1).Allows(2))
}
