package payment

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"venuebook/internal/domain"

	"github.com/gin-gonic/gin"
)

// BookingLifecycle is the slice of the booking service the callback needs.
type BookingLifecycle interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID, actorID int64) error
	RejectOrCancel(ctx context.Context, bookingID int64, to domain.BookingStatus, reason string, actorID int64) (bool, error)
}

// Handler receives server-to-server result callbacks from the checkout
// provider. The route is public but every callback must carry a valid
// signature, and the reported amount must match what the booking costs.
type Handler struct {
	bookings BookingLifecycle
	secret   string
	loggerf  func(format string, args ...interface{})
}

func NewHandler(bookings BookingLifecycle, secret string, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{bookings: bookings, secret: secret, loggerf: loggerf}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/result", h.ResultCallback)
}

// ResultCallback handles the provider's payment outcome notification. Paid
// confirmations and declines both go through conditional lifecycle updates, so
// replayed callbacks are harmless.
func (h *Handler) ResultCallback(c *gin.Context) {
	_ = c.Request.ParseForm()

	bookingID, err := strconv.ParseInt(c.PostForm("order_ref_id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	amount := c.PostForm("amount")
	status := strings.ToLower(c.PostForm("status"))
	signature := c.PostForm("signature")

	expected := Signature(h.secret, c.PostForm("order_ref_id"), amount, status)
	if !strings.EqualFold(signature, expected) {
		h.loggerf("level=error msg=payment callback signature mismatch booking_id=%d", bookingID)
		c.String(http.StatusForbidden, "forbidden")
		return
	}

	b, err := h.bookings.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		h.loggerf("level=error msg=payment callback for unknown booking booking_id=%d err=%v", bookingID, err)
		c.String(http.StatusNotFound, "not found")
		return
	}
	if !amountEqual(amount, strconv.FormatFloat(b.TotalPrice, 'f', 2, 64)) {
		h.loggerf("level=error msg=payment callback amount mismatch booking_id=%d callback_amount=%s expected=%.2f", bookingID, amount, b.TotalPrice)
		c.String(http.StatusForbidden, "forbidden")
		return
	}

	switch status {
	case StatusPaid:
		if err := h.bookings.ConfirmPayment(c.Request.Context(), bookingID, 0); err != nil {
			h.loggerf("level=error msg=payment confirmation failed booking_id=%d err=%v", bookingID, err)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
	case StatusDeclined:
		if _, err := h.bookings.RejectOrCancel(c.Request.Context(), bookingID, domain.BookingRejected, "payment declined", 0); err != nil {
			h.loggerf("level=error msg=payment decline handling failed booking_id=%d err=%v", bookingID, err)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
	default:
		// Pending and unknown statuses are acknowledged without a transition;
		// the provider retries with a final status later.
	}

	c.String(http.StatusOK, "OK"+strconv.FormatInt(bookingID, 10))
}

func amountEqual(a, b string) bool {
	ar, ok := new(big.Rat).SetString(strings.TrimSpace(a))
	if !ok {
		return false
	}
	br, ok := new(big.Rat).SetString(strings.TrimSpace(b))
	if !ok {
		return false
	}
	return ar.Cmp(br) == 0
}
