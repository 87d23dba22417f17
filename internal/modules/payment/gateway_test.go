package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"venuebook/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayInitiate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "m-1", r.PostForm.Get("merchant_id"))
		assert.Equal(t, "50.00", r.PostForm.Get("amount"))
		assert.Equal(t, Signature("s3cret", "m-1", "50.00", "USD", "booking-100"), r.PostForm.Get("signature"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"order_id":     "gw-123",
			"redirect_url": srvRedirect,
		})
	}))
	defer srv.Close()

	g := NewGateway(srv.Client(), "m-1", "s3cret", srv.URL, "")
	orderID, redirect, err := g.Initiate(context.Background(), 50, "USD", "booking-100")

	require.NoError(t, err)
	assert.Equal(t, "gw-123", orderID)
	assert.Equal(t, srvRedirect, redirect)
}

const srvRedirect = "https://checkout.paygate.example/pay/gw-123"

func TestGatewayInitiate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(srv.Client(), "m-1", "s3cret", srv.URL, "")
	_, _, err := g.Initiate(context.Background(), 50, "USD", "booking-100")

	assert.ErrorContains(t, err, "gateway returned status 500")
}

func TestGatewayInitiate_TimeoutHonored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewGateway(srv.Client(), "m-1", "s3cret", srv.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := g.Initiate(ctx, 50, "USD", "booking-100")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestGatewayInitiate_NotConfigured(t *testing.T) {
	g := NewGateway(nil, "", "", "https://unused.example", "")
	_, _, err := g.Initiate(context.Background(), 50, "USD", "booking-100")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGatewayCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders/gw-123", r.URL.Path)
		assert.Equal(t, Signature("s3cret", "m-1", "gw-123"), r.URL.Query().Get("signature"))
		_ = json.NewEncoder(w).Encode(map[string]string{"status": StatusPaid})
	}))
	defer srv.Close()

	g := NewGateway(srv.Client(), "m-1", "s3cret", srv.URL, "")
	status, err := g.CheckStatus(context.Background(), "gw-123")

	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

// Callback handler tests

type fakeLifecycle struct {
	booking      *domain.Booking
	confirmCalls int
	rejectCalls  int
	lastReason   string
	confirmErr   error
}

func (f *fakeLifecycle) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return f.booking, nil
}

func (f *fakeLifecycle) ConfirmPayment(ctx context.Context, bookingID, actorID int64) error {
	f.confirmCalls++
	return f.confirmErr
}

func (f *fakeLifecycle) RejectOrCancel(ctx context.Context, bookingID int64, to domain.BookingStatus, reason string, actorID int64) (bool, error) {
	f.rejectCalls++
	f.lastReason = reason
	return true, nil
}

func postCallback(t *testing.T, h *Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/payments/result", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	h.ResultCallback(c)
	return w
}

func signedForm(secret string, bookingID int64, amount, status string) url.Values {
	idStr := strconv.FormatInt(bookingID, 10)
	form := url.Values{}
	form.Set("order_ref_id", idStr)
	form.Set("amount", amount)
	form.Set("status", status)
	form.Set("signature", Signature(secret, idStr, amount, status))
	return form
}

func TestResultCallback_PaidConfirmsBooking(t *testing.T) {
	lc := &fakeLifecycle{booking: &domain.Booking{ID: 100, TotalPrice: 50}}
	h := NewHandler(lc, "s3cret", nil)

	w := postCallback(t, h, signedForm("s3cret", 100, "50.00", StatusPaid))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK100", w.Body.String())
	assert.Equal(t, 1, lc.confirmCalls)
}

func TestResultCallback_DeclinedRejectsBooking(t *testing.T) {
	lc := &fakeLifecycle{booking: &domain.Booking{ID: 100, TotalPrice: 50}}
	h := NewHandler(lc, "s3cret", nil)

	w := postCallback(t, h, signedForm("s3cret", 100, "50.00", StatusDeclined))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, lc.rejectCalls)
	assert.Equal(t, "payment declined", lc.lastReason)
	assert.Zero(t, lc.confirmCalls)
}

func TestResultCallback_BadSignatureForbidden(t *testing.T) {
	lc := &fakeLifecycle{booking: &domain.Booking{ID: 100, TotalPrice: 50}}
	h := NewHandler(lc, "s3cret", nil)

	form := signedForm("wrong-secret", 100, "50.00", StatusPaid)
	w := postCallback(t, h, form)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, lc.confirmCalls)
}

func TestResultCallback_AmountMismatchForbidden(t *testing.T) {
	lc := &fakeLifecycle{booking: &domain.Booking{ID: 100, TotalPrice: 75}}
	h := NewHandler(lc, "s3cret", nil)

	w := postCallback(t, h, signedForm("s3cret", 100, "50.00", StatusPaid))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, lc.confirmCalls)
}

func TestResultCallback_EquivalentAmountFormsMatch(t *testing.T) {
	lc := &fakeLifecycle{booking: &domain.Booking{ID: 100, TotalPrice: 50}}
	h := NewHandler(lc, "s3cret", nil)

	// "50" and "50.00" are the same amount.
	w := postCallback(t, h, signedForm("s3cret", 100, "50", StatusPaid))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, lc.confirmCalls)
}

func TestResultCallback_PendingIsAcknowledgedWithoutTransition(t *testing.T) {
	lc := &fakeLifecycle{booking: &domain.Booking{ID: 100, TotalPrice: 50}}
	h := NewHandler(lc, "s3cret", nil)

	w := postCallback(t, h, signedForm("s3cret", 100, "50.00", StatusPending))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, lc.confirmCalls)
	assert.Zero(t, lc.rejectCalls)
}
