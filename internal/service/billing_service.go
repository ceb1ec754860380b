package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
	"hotel-portal/internal/util"

	"go.uber.org/zap"
)

// BillingListLimit caps the billing list
const BillingListLimit = 500

// Invoice is the printable bill of one stay
type Invoice struct {
	Hotel    *models.Hotel          `json:"hotel"`
	Stay     *models.Stay           `json:"stay"`
	Settings models.BillingSettings `json:"settings"`
	Requests []models.Request       `json:"requests"`
	Subtotal models.Money           `json:"subtotal"`
	GST      models.Money           `json:"gst"`
	Total    models.Money           `json:"total"`
}

// BillingQuery filters the billing list
type BillingQuery struct {
	Scope models.Scope
	Paid  *bool
	Query string
}

// BillingSummary aggregates a billing list
type BillingSummary struct {
	Count       int          `json:"count"`
	Billed      models.Money `json:"billed"`
	Paid        models.Money `json:"paid"`
	Outstanding models.Money `json:"outstanding"`
}

// BillingReport is the billing list with its summary
type BillingReport struct {
	Stays   []models.Stay  `json:"stays"`
	Summary BillingSummary `json:"summary"`
}

// BillingService keeps stay totals, payment state and invoice numbers
type BillingService struct {
	repo store.Repository
	emitter
	logger *zap.Logger
	now    func() time.Time
}

// NewBillingService creates a new billing service
func NewBillingService(repo store.Repository, notifier BoardNotifier, publisher EventPublisher) *BillingService {
	return &BillingService{
		repo:    repo,
		emitter: newEmitter(notifier, publisher),
		logger:  util.GetLogger(),
		now:     time.Now,
	}
}

// refreshTotalDue recomputes total_due (billable subtotals plus GST) inside q
func (s *BillingService) refreshTotalDue(ctx context.Context, q store.Queries, stayID int64) (*models.Stay, models.StayTotals, error) {
	stay, err := q.LockStay(ctx, models.AllHotels(), stayID)
	if err != nil {
		return nil, models.StayTotals{}, err
	}
	totals, err := q.StayTotals(ctx, stayID)
	if err != nil {
		return nil, models.StayTotals{}, err
	}
	settings, err := q.GetBillingSettings(ctx, stay.HotelID)
	if err != nil {
		return nil, models.StayTotals{}, err
	}

	grand := totals.Grand()
	stay.TotalDue = grand + grand.PercentBP(settings.GSTPercentBP)
	if err := q.SaveStayBilling(ctx, stay); err != nil {
		return nil, models.StayTotals{}, err
	}
	return stay, totals, nil
}

// assignInvoice gives the stay the next invoice number of its hotel, once
func (s *BillingService) assignInvoice(ctx context.Context, q store.Queries, stay *models.Stay) error {
	if stay.InvoiceNo != nil {
		return nil
	}
	settings, err := q.LockBillingSettings(ctx, stay.HotelID)
	if err != nil {
		return err
	}
	no := fmt.Sprintf("%s-%06d", settings.InvoicePrefix, settings.NextInvoiceSeq)
	if err := q.SetNextInvoiceSeq(ctx, stay.HotelID, settings.NextInvoiceSeq+1); err != nil {
		return err
	}
	stay.InvoiceNo = &no
	return nil
}

// MarkPaid settles a stay: its requests become paid, payment fields are set
// and an invoice number is assigned if the stay has none
func (s *BillingService) MarkPaid(ctx context.Context, scope models.Scope, stayID int64, mode string) (*models.Stay, error) {
	ctx, span := util.StartSpan(ctx, "BillingService.MarkPaid")
	defer span.End()

	mode = strings.ToUpper(strings.TrimSpace(mode))
	if !models.ValidPaymentMode(mode) {
		return nil, fmt.Errorf("%w: payment mode %q", models.ErrInvalidInput, mode)
	}

	var stay *models.Stay
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		if _, err := q.LockStay(ctx, scope, stayID); err != nil {
			return err
		}
		if err := q.MarkStayRequestsPaid(ctx, stayID); err != nil {
			return err
		}
		st, _, err := s.refreshTotalDue(ctx, q, stayID)
		if err != nil {
			return err
		}

		now := s.now()
		st.IsPaid = true
		st.PaidAt = &now
		st.PaymentMode = mode
		if err := s.assignInvoice(ctx, q, st); err != nil {
			return err
		}
		if err := q.SaveStayBilling(ctx, st); err != nil {
			return err
		}
		stay = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.StaysPaidTotal.Inc()
	s.logger.Info("Stay marked paid",
		zap.Int64("stay_id", stay.ID),
		zap.String("invoice_no", *stay.InvoiceNo),
		zap.String("payment_mode", mode))

	room := &models.Room{ID: stay.RoomID, HotelID: stay.HotelID}
	if r, err := s.repo.GetRoom(ctx, scope, stay.RoomID); err == nil {
		room = r
	}
	s.roomChanged(ctx, models.EventTypeStayPaid, room, &stay.ID, *stay.InvoiceNo)
	return stay, nil
}

// Invoice assembles the bill of a stay from its non-cancelled requests
func (s *BillingService) Invoice(ctx context.Context, scope models.Scope, stayID int64) (*Invoice, error) {
	stay, err := s.repo.GetStay(ctx, scope, stayID)
	if err != nil {
		return nil, err
	}
	hotel, err := s.repo.GetHotel(ctx, stay.HotelID)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.GetBillingSettings(ctx, stay.HotelID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListRequests(ctx, store.RequestFilter{
		Scope:    models.HotelScope(stay.HotelID),
		StayID:   &stay.ID,
		Statuses: []string{models.RequestStatusNew, models.RequestStatusAccepted, models.RequestStatusCompleted},
	})
	if err != nil {
		return nil, err
	}

	inv := &Invoice{Hotel: hotel, Stay: stay, Settings: *settings, Requests: reqs}
	for _, r := range reqs {
		inv.Subtotal += r.Subtotal
	}
	inv.GST = inv.Subtotal.PercentBP(settings.GSTPercentBP)
	inv.Total = inv.Subtotal + inv.GST
	return inv, nil
}

// BillingList lists billed stays with a paid/outstanding summary
func (s *BillingService) BillingList(ctx context.Context, bq BillingQuery) (*BillingReport, error) {
	stays, err := s.repo.ListStays(ctx, store.StayFilter{
		Scope:      bq.Scope,
		Query:      bq.Query,
		BilledOnly: true,
		Paid:       bq.Paid,
		Limit:      BillingListLimit,
	})
	if err != nil {
		return nil, err
	}

	report := &BillingReport{Stays: stays}
	for _, st := range stays {
		report.Summary.Count++
		report.Summary.Billed += st.TotalDue
		if st.IsPaid {
			report.Summary.Paid += st.TotalDue
		} else {
			report.Summary.Outstanding += st.TotalDue
		}
	}
	return report, nil
}
