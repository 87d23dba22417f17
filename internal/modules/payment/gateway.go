package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Gateway statuses as reported by the checkout provider.
const (
	StatusPaid     = "paid"
	StatusPending  = "pending"
	StatusDeclined = "declined"
)

var (
	ErrNotConfigured    = errors.New("payment gateway is not configured")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAmountMismatch   = errors.New("amount mismatch")
)

// Gateway is the HTTP client for the external checkout provider. Every request
// carries an MD5 signature over the colon-joined request fields plus the shared
// secret; the provider rejects anything unsigned. All calls are bounded by the
// context deadline set by the caller and by the client timeout as a backstop.
type Gateway struct {
	client     *http.Client
	merchantID string
	secret     string
	baseURL    string
	resultURL  string
}

// NewGatewayFromEnv builds a Gateway from PAYGATE_* environment variables.
func NewGatewayFromEnv() *Gateway {
	return &Gateway{
		client:     &http.Client{Timeout: 15 * time.Second},
		merchantID: os.Getenv("PAYGATE_MERCHANT_ID"),
		secret:     os.Getenv("PAYGATE_SECRET"),
		baseURL:    envOrDefault("PAYGATE_BASE_URL", "https://checkout.paygate.example"),
		resultURL:  os.Getenv("PAYGATE_RESULT_URL"),
	}
}

// NewGateway is the explicit constructor used by tests.
func NewGateway(client *http.Client, merchantID, secret, baseURL, resultURL string) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Gateway{client: client, merchantID: merchantID, secret: secret, baseURL: baseURL, resultURL: resultURL}
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

type initiateResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Initiate registers a checkout order with the provider and returns the order
// ID and the URL the customer is redirected to. A non-2xx answer or a dead
// provider comes back as a plain error; the caller decides what happens to the
// booking.
func (g *Gateway) Initiate(ctx context.Context, amount float64, currency, orderRef string) (string, string, error) {
	if g.merchantID == "" || g.secret == "" {
		return "", "", ErrNotConfigured
	}

	amountStr := strconv.FormatFloat(amount, 'f', 2, 64)
	form := url.Values{}
	form.Set("merchant_id", g.merchantID)
	form.Set("amount", amountStr)
	form.Set("currency", currency)
	form.Set("order_ref", orderRef)
	if g.resultURL != "" {
		form.Set("result_url", g.resultURL)
	}
	form.Set("signature", Signature(g.secret, g.merchantID, amountStr, currency, orderRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/orders", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("decode gateway response: %w", err)
	}
	if out.OrderID == "" || out.RedirectURL == "" {
		return "", "", errors.New("gateway response missing order_id or redirect_url")
	}
	return out.OrderID, out.RedirectURL, nil
}

// CheckStatus polls the provider for the current state of an order.
func (g *Gateway) CheckStatus(ctx context.Context, orderID string) (string, error) {
	if g.merchantID == "" || g.secret == "" {
		return "", ErrNotConfigured
	}

	q := url.Values{}
	q.Set("merchant_id", g.merchantID)
	q.Set("signature", Signature(g.secret, g.merchantID, orderID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/orders/"+url.PathEscape(orderID)+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	return out.Status, nil
}

// Signature joins the fields with colons, appends the secret and hashes the
// result. Uppercase hex to match what the provider sends back in callbacks.
func Signature(secret string, parts ...string) string {
	payload := strings.Join(append(append([]string(nil), parts...), secret), ":")
	h := md5.Sum([]byte(payload))
	return strings.ToUpper(hex.EncodeToString(h[:]))
}
