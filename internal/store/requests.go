package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-portal/internal/models"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const requestSelect = `
	SELECT rq.id, rq.hotel_id, rq.room_id, rq.stay_id, rq.kind, rq.status, rq.service_item_id,
		rq.subtotal_cents, rq.is_paid, rq.note, rq.created_at, rq.updated_at,
		rq.accepted_at, rq.completed_at, rq.cancelled_at,
		r.number AS room_number, h.name AS hotel_name, h.staff_group_code, si.name AS service_item_name
	FROM requests rq
	JOIN rooms r ON r.id = rq.room_id
	JOIN hotels h ON h.id = rq.hotel_id
	LEFT JOIN items si ON si.id = rq.service_item_id`

// CreateRequest inserts a request; an open duplicate SERVICE request yields ErrDuplicateActive
func (q *queries) CreateRequest(ctx context.Context, r *models.Request) error {
	query := `
		INSERT INTO requests (hotel_id, room_id, stay_id, kind, status, service_item_id,
			subtotal_cents, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := sqlxGet(ctx, q, &r.ID, query,
		r.HotelID, r.RoomID, r.StayID, r.Kind, r.Status, r.ServiceItemID,
		r.Subtotal, r.Note, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrDuplicateActive
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// CreateRequestLines inserts the line snapshots of a FOOD request
func (q *queries) CreateRequestLines(ctx context.Context, lines []models.RequestLine) error {
	for i := range lines {
		ln := &lines[i]
		err := sqlxGet(ctx, q, &ln.ID, `
			INSERT INTO request_lines (request_id, item_id, name_snapshot, price_snapshot_cents, qty, line_total_cents)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			ln.RequestID, ln.ItemID, ln.NameSnapshot, ln.PriceSnapshot, ln.Qty, ln.LineTotal)
		if err != nil {
			return fmt.Errorf("failed to create request line: %w", err)
		}
	}
	return nil
}

// LockServiceSlot serialises service creation for (hotel, room, item) until the transaction ends
func (q *queries) LockServiceSlot(ctx context.Context, hotelID, roomID, itemID int64) error {
	key := fmt.Sprintf("service:%d:%d:%d", hotelID, roomID, itemID)
	_, err := q.ext.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key)
	if err != nil {
		return fmt.Errorf("failed to lock service slot: %w", err)
	}
	return nil
}

// HasOpenService reports a NEW or ACCEPTED request for the same service
func (q *queries) HasOpenService(ctx context.Context, hotelID, roomID, itemID int64) (bool, error) {
	var exists bool
	err := sqlxGet(ctx, q, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM requests
			WHERE hotel_id = ? AND room_id = ? AND service_item_id = ? AND kind = 'SERVICE'
				AND status = ANY(?)
		)`, hotelID, roomID, itemID, pq.Array(models.OpenRequestStatuses))
	if err != nil {
		return false, fmt.Errorf("failed to check open service: %w", err)
	}
	return exists, nil
}

func (q *queries) getRequest(ctx context.Context, scope models.Scope, requestID int64, lock bool) (*models.Request, error) {
	w := &where{}
	w.add("rq.id = ?", requestID)
	w.scope("rq.hotel_id", scope)
	query := requestSelect + w.String()
	if lock {
		query += " FOR UPDATE OF rq"
	}

	var r models.Request
	if err := q.get(ctx, &r, "request", query, w.args...); err != nil {
		return nil, err
	}
	reqs := []models.Request{r}
	if err := q.loadLines(ctx, reqs); err != nil {
		return nil, err
	}
	return &reqs[0], nil
}

// GetRequest retrieves a request and its lines inside the scope
func (q *queries) GetRequest(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error) {
	return q.getRequest(ctx, scope, requestID, false)
}

// LockRequest retrieves a request holding a row lock
func (q *queries) LockRequest(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error) {
	return q.getRequest(ctx, scope, requestID, true)
}

// SaveRequestStatus persists status and lifecycle timestamps
func (q *queries) SaveRequestStatus(ctx context.Context, r *models.Request) error {
	n, err := q.exec(ctx, "update request status", `
		UPDATE requests SET status = ?, accepted_at = ?, completed_at = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ?`,
		r.Status, r.AcceptedAt, r.CompletedAt, r.CancelledAt, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("request %d: %w", r.ID, models.ErrNotFound)
	}
	return nil
}

// ListRequests retrieves requests matching the filter with their lines
func (q *queries) ListRequests(ctx context.Context, f RequestFilter) ([]models.Request, error) {
	w := &where{}
	w.scope("rq.hotel_id", f.Scope)
	if f.RoomID != 0 {
		w.add("rq.room_id = ?", f.RoomID)
	}
	if f.StayID != nil {
		w.add("rq.stay_id = ?", *f.StayID)
	}
	if len(f.Statuses) > 0 {
		w.add("rq.status = ANY(?)", pq.Array(f.Statuses))
	}
	if f.Kind != "" {
		w.add("rq.kind = ?", f.Kind)
	}
	if f.RoomNumber != "" {
		w.add("r.number ILIKE ?", likePattern(f.RoomNumber))
	}
	if f.From != nil {
		w.add("rq.created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("rq.created_at < ?", *f.To)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(rq.note ILIKE ? OR COALESCE(si.name, '') ILIKE ?)", p, p)
	}

	query := requestSelect + w.String()
	if f.OrderBy == OrderUpdatedDesc {
		query += " ORDER BY rq.updated_at DESC, rq.id DESC"
	} else {
		query += " ORDER BY rq.created_at DESC, rq.id DESC"
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	reqs := []models.Request{}
	if err := q.selectRows(ctx, &reqs, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	if err := q.loadLines(ctx, reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// CountRequestsClosed counts requests that reached status inside [from, to)
func (q *queries) CountRequestsClosed(ctx context.Context, scope models.Scope, status string, from, to time.Time) (int, error) {
	var column string
	switch status {
	case models.RequestStatusCompleted:
		column = "completed_at"
	case models.RequestStatusCancelled:
		column = "cancelled_at"
	default:
		return 0, fmt.Errorf("%w: status %s has no close time", models.ErrInvalidInput, status)
	}

	w := &where{}
	w.add("status = ?", status)
	w.add(column+" >= ?", from)
	w.add(column+" < ?", to)
	w.scope("hotel_id", scope)

	var n int
	if err := sqlxGet(ctx, q, &n, "SELECT COUNT(*) FROM requests"+w.String(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count %s requests: %w", status, err)
	}
	return n, nil
}

// loadLines attaches request lines in one round trip
func (q *queries) loadLines(ctx context.Context, reqs []models.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(reqs))
	for i := range reqs {
		reqs[i].Lines = []models.RequestLine{}
		ids = append(ids, reqs[i].ID)
	}

	var lines []models.RequestLine
	err := q.selectRows(ctx, &lines, `
		SELECT id, request_id, item_id, name_snapshot, price_snapshot_cents, qty, line_total_cents
		FROM request_lines WHERE request_id = ANY(?) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load request lines: %w", err)
	}

	index := make(map[int64]int, len(reqs))
	for i := range reqs {
		index[reqs[i].ID] = i
	}
	for _, ln := range lines {
		if i, ok := index[ln.RequestID]; ok {
			reqs[i].Lines = append(reqs[i].Lines, ln)
		}
	}
	return nil
}
