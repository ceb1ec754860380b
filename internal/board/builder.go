package board

import (
	"context"
	"fmt"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
	"hotel-portal/internal/util"
)

// DefaultLaneLimit is how many cards each open lane shows
const DefaultLaneLimit = 100

// Source is the read side the builder needs
type Source interface {
	ListRequests(ctx context.Context, f store.RequestFilter) ([]models.Request, error)
	CountRequestsClosed(ctx context.Context, scope models.Scope, status string, from, to time.Time) (int, error)
	ListRooms(ctx context.Context, scope models.Scope) ([]models.RoomOccupancy, error)
}

// Builder assembles snapshots. Nothing is cached; every call reads fresh rows.
type Builder struct {
	src       Source
	laneLimit int
	loc       *time.Location
	now       func() time.Time
}

// NewBuilder creates a new snapshot builder
func NewBuilder(src Source, laneLimit int, loc *time.Location) *Builder {
	if laneLimit <= 0 {
		laneLimit = DefaultLaneLimit
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{src: src, laneLimit: laneLimit, loc: loc, now: time.Now}
}

// Location is the timezone "today" is computed in
func (b *Builder) Location() *time.Location {
	return b.loc
}

// Build returns the board of one hotel, or of every hotel for the global scope
func (b *Builder) Build(ctx context.Context, scope models.Scope) (*Snapshot, error) {
	ctx, span := util.StartSpan(ctx, "Board.Build")
	defer span.End()

	start := time.Now()
	defer func() {
		util.BoardBuildLatency.Observe(time.Since(start).Seconds())
	}()

	newReqs, err := b.src.ListRequests(ctx, store.RequestFilter{
		Scope:    scope,
		Statuses: []string{models.RequestStatusNew},
		OrderBy:  store.OrderCreatedDesc,
		Limit:    b.laneLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load new lane: %w", err)
	}
	accepted, err := b.src.ListRequests(ctx, store.RequestFilter{
		Scope:    scope,
		Statuses: []string{models.RequestStatusAccepted},
		OrderBy:  store.OrderUpdatedDesc,
		Limit:    b.laneLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load accepted lane: %w", err)
	}

	now := b.now()
	from, to := models.DayBounds(now, b.loc)
	completed, err := b.src.CountRequestsClosed(ctx, scope, models.RequestStatusCompleted, from, to)
	if err != nil {
		return nil, err
	}
	cancelled, err := b.src.CountRequestsClosed(ctx, scope, models.RequestStatusCancelled, from, to)
	if err != nil {
		return nil, err
	}

	rooms, err := b.src.ListRooms(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}

	snap := &Snapshot{
		New:         Requests(newReqs, b.loc),
		Accepted:    Requests(accepted, b.loc),
		Counts:      Counts{CompletedToday: completed, CancelledToday: cancelled},
		Rooms:       Bucket(rooms),
		GeneratedAt: now.In(b.loc).Format(time.RFC3339),
	}
	if !scope.Global() {
		id := scope.HotelID
		snap.HotelID = &id
	}
	return snap, nil
}
