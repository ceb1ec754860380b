package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hotel-portal/internal/auth"
	"hotel-portal/internal/board"
	"hotel-portal/internal/models"
	"hotel-portal/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	scopeKey  = "portal.scope"
	dayLayout = "2006-01-02"
	xlsxType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type actionRequest struct {
	Action string `json:"action" form:"action" binding:"required"`
}

type checkInRequest struct {
	RoomID    int64  `json:"room_id" form:"room_id" binding:"required"`
	GuestName string `json:"guest_name" form:"guest_name"`
	Phone     string `json:"phone" form:"phone"`
}

type roomRequest struct {
	RoomID int64 `json:"room_id" form:"room_id" binding:"required"`
}

type markPaidRequest struct {
	PaymentMode string `json:"payment_mode" form:"payment_mode"`
}

func (h *Handler) setupPortalRoutes(router *gin.Engine) {
	p := router.Group("/portal", h.requirePrincipal, h.subscriptionGate)
	{
		p.GET("/live/poll", h.livePoll)
		p.POST("/live/:request_id/action", h.requestAction)
		p.GET("/live/:request_id/detail", h.requestDetail)

		p.GET("/requests/history", h.requestHistory)
		p.GET("/requests/history/export.csv", h.exportHistoryCSV)
		p.GET("/requests/history/export.xlsx", h.exportHistoryXLSX)

		p.POST("/stay/checkin", h.checkIn)
		p.POST("/stay/checkout", h.checkout)
		p.POST("/room/ready", h.markReady)
		p.GET("/stay/detail", h.stayDetail)

		p.GET("/stays", h.listStays)
		p.GET("/stays/export.csv", h.exportStaysCSV)
		p.GET("/stays/export.xlsx", h.exportStaysXLSX)
		p.GET("/stays/:id", h.getStay)
		p.GET("/stays/:id/invoice", h.invoice)
		p.POST("/stays/:id/mark-paid", h.markPaid)

		p.GET("/billing", h.billing)
	}
}

// requirePrincipal resolves the operator scope. A platform admin may narrow it with ?hotel_id=.
func (h *Handler) requirePrincipal(c *gin.Context) {
	p, ok := auth.FromContext(c)
	if !ok {
		respondError(c, models.ErrUnauthenticated)
		return
	}
	scope, err := p.Scope()
	if err != nil {
		respondError(c, err)
		return
	}
	if p.IsPlatformAdmin() && scope.Global() {
		if raw := c.Query("hotel_id"); raw != "" {
			id, ok := parseID(raw)
			if !ok {
				respondError(c, fmt.Errorf("%w: hotel_id", models.ErrInvalidInput))
				return
			}
			scope = models.HotelScope(id)
		}
	}
	c.Set(scopeKey, scope)
	c.Next()
}

// subscriptionGate blocks hotel operators once their hotel's subscription lapsed
func (h *Handler) subscriptionGate(c *gin.Context) {
	p, _ := auth.FromContext(c)
	if p.IsPlatformAdmin() {
		c.Next()
		return
	}
	hotel, err := h.Guests.Hotel(c.Request.Context(), *p.HotelID)
	if err != nil {
		respondError(c, err)
		return
	}
	if hotel.SubscriptionExpired(h.now().In(h.loc)) {
		respondError(c, models.ErrSubscriptionExpired)
		return
	}
	c.Next()
}

func scopeFrom(c *gin.Context) models.Scope {
	return c.MustGet(scopeKey).(models.Scope)
}

func (h *Handler) parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dayLayout, raw, h.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", models.ErrInvalidInput, raw)
	}
	return &t, nil
}

func (h *Handler) dayRange(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := h.parseDay(c.Query("from"))
	if err != nil {
		return nil, nil, err
	}
	to, err := h.parseDay(c.Query("to"))
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (h *Handler) livePoll(c *gin.Context) {
	snap, err := h.Broadcaster.Snapshot(c.Request.Context(), scopeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": snap})
}

func (h *Handler) requestAction(c *gin.Context) {
	id, ok := parseID(c.Param("request_id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	var req actionRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	action, err := models.ParseAction(strings.ToLower(strings.TrimSpace(req.Action)))
	if err != nil {
		respondError(c, err)
		return
	}

	r, err := h.Requests.Transition(c.Request.Context(), scopeFrom(c), id, action)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"request": board.Request(*r, h.loc)})
}

func (h *Handler) requestDetail(c *gin.Context) {
	id, ok := parseID(c.Param("request_id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	r, err := h.Requests.Get(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"request": board.Request(*r, h.loc)})
}

func (h *Handler) historyQuery(c *gin.Context) (service.HistoryQuery, error) {
	from, to, err := h.dayRange(c)
	if err != nil {
		return service.HistoryQuery{}, err
	}
	return service.HistoryQuery{
		Scope:  scopeFrom(c),
		Status: c.Query("status"),
		Kind:   c.Query("kind"),
		Room:   c.Query("room"),
		From:   from,
		To:     to,
		Query:  c.Query("q"),
	}, nil
}

func (h *Handler) loadHistory(c *gin.Context) ([]models.Request, bool) {
	hq, err := h.historyQuery(c)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	reqs, err := h.Requests.History(c.Request.Context(), hq)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return reqs, true
}

func (h *Handler) requestHistory(c *gin.Context) {
	reqs, ok := h.loadHistory(c)
	if !ok {
		return
	}
	respondOK(c, gin.H{"count": len(reqs), "requests": board.Requests(reqs, h.loc)})
}

func (h *Handler) exportHistoryCSV(c *gin.Context) {
	reqs, ok := h.loadHistory(c)
	if !ok {
		return
	}
	h.sendCSV(c, "request-history", board.HistoryTable(reqs, h.loc))
}

func (h *Handler) exportHistoryXLSX(c *gin.Context) {
	reqs, ok := h.loadHistory(c)
	if !ok {
		return
	}
	h.sendXLSX(c, "request-history", board.HistoryTable(reqs, h.loc))
}

func (h *Handler) exportName(base, ext string) string {
	return fmt.Sprintf("%s-%s.%s", base, h.now().In(h.loc).Format(dayLayout), ext)
}

func (h *Handler) sendCSV(c *gin.Context, base string, t board.Table) {
	var buf bytes.Buffer
	if err := board.WriteCSV(&buf, t); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exportName(base, "csv")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) sendXLSX(c *gin.Context, base string, t board.Table) {
	data, err := board.XLSX(t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exportName(base, "xlsx")))
	c.Data(http.StatusOK, xlsxType, data)
}

func (h *Handler) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	stay, err := h.Occupancy.CheckIn(c.Request.Context(), scopeFrom(c), req.RoomID, req.GuestName, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"stay": stay})
}

func (h *Handler) checkout(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	res, err := h.Occupancy.Checkout(c.Request.Context(), scopeFrom(c), req.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"stay": res.Stay,
		"room": res.Room,
		"totals": gin.H{
			"food":    res.Totals.Food,
			"service": res.Totals.Service,
			"grand":   res.Totals.Grand(),
			"unpaid":  res.Totals.Unpaid,
		},
	})
}

func (h *Handler) markReady(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	room, err := h.Occupancy.MarkReady(c.Request.Context(), scopeFrom(c), req.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"room": room})
}

func (h *Handler) respondStayDetail(c *gin.Context, d *service.StayDetail, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"room":     d.Room,
		"stay":     d.Stay,
		"requests": board.Requests(d.Requests, h.loc),
		"totals": gin.H{
			"food":    d.Totals.Food,
			"service": d.Totals.Service,
			"grand":   d.Totals.Grand(),
			"unpaid":  d.Totals.Unpaid,
		},
	})
}

func (h *Handler) stayDetail(c *gin.Context) {
	roomID, ok := parseID(c.Query("room_id"))
	if !ok {
		respondError(c, fmt.Errorf("%w: room_id", models.ErrInvalidInput))
		return
	}
	d, err := h.Occupancy.StayDetail(c.Request.Context(), scopeFrom(c), roomID)
	h.respondStayDetail(c, d, err)
}

func (h *Handler) getStay(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	d, err := h.Occupancy.Stay(c.Request.Context(), scopeFrom(c), id)
	h.respondStayDetail(c, d, err)
}

func (h *Handler) loadStays(c *gin.Context) ([]models.Stay, bool) {
	from, to, err := h.dayRange(c)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	stays, err := h.Occupancy.Stays(c.Request.Context(), service.StayQuery{
		Scope:  scopeFrom(c),
		Status: c.Query("status"),
		Room:   c.Query("room"),
		From:   from,
		To:     to,
		Query:  c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return stays, true
}

func (h *Handler) listStays(c *gin.Context) {
	stays, ok := h.loadStays(c)
	if !ok {
		return
	}
	respondOK(c, gin.H{"count": len(stays), "stays": stays})
}

func (h *Handler) exportStaysCSV(c *gin.Context) {
	stays, ok := h.loadStays(c)
	if !ok {
		return
	}
	h.sendCSV(c, "stays", board.StaysTable(stays, h.loc))
}

func (h *Handler) exportStaysXLSX(c *gin.Context) {
	stays, ok := h.loadStays(c)
	if !ok {
		return
	}
	h.sendXLSX(c, "stays", board.StaysTable(stays, h.loc))
}

func (h *Handler) invoice(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	inv, err := h.Billing.Invoice(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"hotel":    inv.Hotel,
		"stay":     inv.Stay,
		"settings": inv.Settings,
		"requests": board.Requests(inv.Requests, h.loc),
		"subtotal": inv.Subtotal,
		"gst":      inv.GST,
		"total":    inv.Total,
	})
}

func (h *Handler) markPaid(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	var req markPaidRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	stay, err := h.Billing.MarkPaid(c.Request.Context(), scopeFrom(c), id, req.PaymentMode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"stay": stay})
}

func (h *Handler) billing(c *gin.Context) {
	bq := service.BillingQuery{Scope: scopeFrom(c), Query: c.Query("q")}
	switch strings.ToLower(c.Query("paid")) {
	case "":
	case "yes", "true", "1":
		paid := true
		bq.Paid = &paid
	case "no", "false", "0":
		paid := false
		bq.Paid = &paid
	default:
		respondError(c, fmt.Errorf("%w: paid", models.ErrInvalidInput))
		return
	}

	report, err := h.Billing.BillingList(c.Request.Context(), bq)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"stays": report.Stays, "summary": report.Summary})
}
