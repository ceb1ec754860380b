package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hotel-portal/internal/board"
	"hotel-portal/internal/models"
	"hotel-portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	phoneCookie     = "guest_phone"
	guestContextKey = "portal.guest"
	headerCartCount = "X-Cart-Count"
	headerCartTotal = "X-Cart-Total"
)

type verifyPhoneRequest struct {
	Phone string `json:"phone" form:"phone"`
}

// cartItemRequest keeps qty raw so a missing or malformed value can be defaulted
type cartItemRequest struct {
	ItemID int64           `json:"item_id" form:"item_id" binding:"required"`
	Qty    json.RawMessage `json:"qty" form:"-"`
}

// rawQty returns the submitted qty as text, from the JSON body or the form
func (r *cartItemRequest) rawQty(c *gin.Context) string {
	if c.ContentType() != binding.MIMEJSON {
		return strings.TrimSpace(c.PostForm("qty"))
	}
	raw := strings.TrimSpace(string(r.Qty))
	if raw == "null" {
		return ""
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		return strings.TrimSpace(unquoted)
	}
	return raw
}

// parseQty reads a cart quantity; a missing value is 1
func parseQty(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: qty %q is not a number", models.ErrInvalidInput, raw)
	}
	return qty, nil
}

type submitOrderRequest struct {
	Note string `json:"note" form:"note"`
}

type serviceRequest struct {
	ItemID int64  `json:"item_id" form:"item_id" binding:"required"`
	Note   string `json:"note" form:"note"`
}

func (h *Handler) setupGuestRoutes(router *gin.Engine) {
	g := router.Group("/h/:hotel_id/r/:room_id", h.resolveGuest)
	{
		g.GET("/", h.guestHome)
		g.POST("/verify-phone", h.verifyPhone)
		g.GET("/cart", h.viewCart)
		g.POST("/cart/add", h.addToCart)
		g.POST("/cart/update", h.updateCart)
		g.POST("/cart/clear", h.clearCart)
		g.POST("/order/submit", h.submitOrder)
		g.POST("/service", h.createServiceRequest)
		g.GET("/summary", h.guestSummary)
		g.GET("/requests/:request_id", h.trackRequest)
	}
}

func roomPath(hotelID, roomID int64) string {
	return fmt.Sprintf("/h/%d/r/%d/", hotelID, roomID)
}

// resolveGuest loads the hotel, room, stay and phone gate state for every guest route
func (h *Handler) resolveGuest(c *gin.Context) {
	hotelID, ok := parseID(c.Param("hotel_id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	roomID, ok := parseID(c.Param("room_id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}

	token, _ := c.Cookie(phoneCookie)
	g, err := h.Guests.Resolve(c.Request.Context(), hotelID, roomID, token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set(guestContextKey, g)
	c.Next()
}

func guestFrom(c *gin.Context) *service.GuestContext {
	return c.MustGet(guestContextKey).(*service.GuestContext)
}

func setCartHeaders(c *gin.Context, snap models.CartSnapshot) {
	c.Header(headerCartCount, fmt.Sprintf("%d", snap.Count))
	c.Header(headerCartTotal, snap.Total.String())
}

func gateState(g *service.GuestContext) gin.H {
	return gin.H{
		"require_phone": g.RequirePhone(),
		"verified":      g.Verified,
		"has_stay":      g.Stay != nil,
	}
}

// guestHome returns the room page: menu, phone gate and cart badge
func (h *Handler) guestHome(c *gin.Context) {
	g := guestFrom(c)
	ctx := c.Request.Context()

	menu, err := h.Guests.Catalog(ctx, g)
	if err != nil {
		respondError(c, err)
		return
	}
	cart, err := h.Carts.View(ctx, g)
	if err != nil {
		respondError(c, err)
		return
	}

	setCartHeaders(c, cart)
	respondOK(c, gin.H{
		"hotel": gin.H{"id": g.Hotel.ID, "name": g.Hotel.Name},
		"room":  gin.H{"id": g.Room.ID, "number": g.Room.Number, "floor": g.Room.Floor},
		"gate":  gateState(g),
		"menu":  menu,
		"cart":  gin.H{"count": cart.Count, "total": cart.Total},
	})
}

// verifyPhone checks the phone against the active stay and remembers it in a
// cookie scoped to this room
func (h *Handler) verifyPhone(c *gin.Context) {
	g := guestFrom(c)
	var req verifyPhoneRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	token, err := h.Guests.VerifyPhone(c.Request.Context(), g.Hotel.ID, g.Room.ID, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(phoneCookie, token, int(h.cookieMaxAge.Seconds()), roomPath(g.Hotel.ID, g.Room.ID), "", h.secure, true)
	respondOK(c, nil)
}

func (h *Handler) respondCart(c *gin.Context, snap models.CartSnapshot, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	setCartHeaders(c, snap)
	respondOK(c, gin.H{"cart": snap})
}

func (h *Handler) viewCart(c *gin.Context) {
	snap, err := h.Carts.View(c.Request.Context(), guestFrom(c))
	h.respondCart(c, snap, err)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	qty, err := parseQty(req.rawQty(c))
	if err != nil {
		qty = 1
	}
	snap, err := h.Carts.AddItem(c.Request.Context(), guestFrom(c), req.ItemID, qty)
	h.respondCart(c, snap, err)
}

func (h *Handler) updateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	qty, err := parseQty(req.rawQty(c))
	if err != nil {
		respondError(c, err)
		return
	}
	snap, err := h.Carts.UpdateItem(c.Request.Context(), guestFrom(c), req.ItemID, qty)
	h.respondCart(c, snap, err)
}

func (h *Handler) clearCart(c *gin.Context) {
	snap, err := h.Carts.Clear(c.Request.Context(), guestFrom(c))
	h.respondCart(c, snap, err)
}

func (h *Handler) submitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	r, err := h.Requests.SubmitOrder(c.Request.Context(), guestFrom(c), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	setCartHeaders(c, models.SnapshotCart(0, nil))
	respondOK(c, gin.H{"request_id": r.ID, "request": board.Request(*r, h.loc)})
}

func (h *Handler) createServiceRequest(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	r, err := h.Requests.CreateServiceRequest(c.Request.Context(), guestFrom(c), req.ItemID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"request_id": r.ID, "request": board.Request(*r, h.loc)})
}

func (h *Handler) guestSummary(c *gin.Context) {
	g := guestFrom(c)
	reqs, err := h.Guests.Summary(c.Request.Context(), g)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"gate": gateState(g), "summary": board.Summary(reqs, h.loc)})
}

func (h *Handler) trackRequest(c *gin.Context) {
	id, ok := parseID(c.Param("request_id"))
	if !ok {
		respondError(c, models.ErrNotFound)
		return
	}
	r, err := h.Guests.Track(c.Request.Context(), guestFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"request": board.Request(*r, h.loc)})
}
