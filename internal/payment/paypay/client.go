// Package paypay is a thin client for the PayPay Open Payment API, covering
// the two calls the register needs: dynamic QR code creation and payment
// detail lookup.
package paypay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tacck/line-api-use-case-smart-retail/internal/app"
	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

const (
	productionBaseURL = "https://api.paypay.ne.jp"
	sandboxBaseURL    = "https://stg-api.sandbox.paypay.ne.jp"

	codesPath          = "/v2/codes"
	paymentDetailsPath = "/v2/codes/payments/"
)

type Config struct {
	APIKey     string
	APISecret  string
	MerchantID string
	Production bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	merchantID string
	now        func() time.Time
}

func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := sandboxBaseURL
	if cfg.Production {
		baseURL = productionBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		merchantID: cfg.MerchantID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at a different API host (useful for tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// envelope is the common OPA response wrapper.
type envelope struct {
	ResultInfo struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"resultInfo"`
	Data json.RawMessage `json:"data"`
}

type paymentData struct {
	Status string `json:"status"`
}

// CreateQRCode issues a dynamic ORDER_QR code for the given request and
// returns the raw provider response.
func (c *Client) CreateQRCode(ctx context.Context, req app.QRCodeRequest) (json.RawMessage, error) {
	body := map[string]any{
		"merchantPaymentId": req.MerchantPaymentID,
		"codeType":          "ORDER_QR",
		"redirectUrl":       req.RedirectURL,
		"redirectType":      "WEB_LINK",
		"orderDescription":  req.Description,
		"orderItems": []map[string]any{{
			"name":      req.ItemName,
			"category":  "item",
			"quantity":  1,
			"productId": "11",
			"unitPrice": map[string]any{
				"amount":   req.Amount,
				"currency": req.Currency,
			},
		}},
		"amount": map[string]any{
			"amount":   req.Amount,
			"currency": req.Currency,
		},
	}

	raw, err := c.do(ctx, http.MethodPost, codesPath, body)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// GetPaymentStatus queries the payment tied to merchantPaymentID and maps the
// provider state onto the closed status set. An absent data payload is a
// transient condition, reported as PaymentStatusUnknown with no error.
func (c *Client) GetPaymentStatus(ctx context.Context, merchantPaymentID string) (domain.PaymentStatus, error) {
	raw, err := c.do(ctx, http.MethodGet, paymentDetailsPath+merchantPaymentID, nil)
	if err != nil {
		return domain.PaymentStatusUnknown, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.PaymentStatusUnknown, nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return domain.PaymentStatusUnknown, nil
	}
	var data paymentData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.PaymentStatusUnknown, nil
	}

	switch data.Status {
	case "COMPLETED":
		return domain.PaymentStatusCompleted, nil
	case "FAILED":
		return domain.PaymentStatusFailed, nil
	default:
		return domain.PaymentStatusPending, nil
	}
}

// GetPaymentDetails fetches the full payment payload for a settled payment.
func (c *Client) GetPaymentDetails(ctx context.Context, merchantPaymentID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, paymentDetailsPath+merchantPaymentID, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var (
		reqBody     io.Reader
		payload     []byte
		contentType string
	)
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", c.authHeader(method, path, contentType, payload))
	if c.merchantID != "" {
		req.Header.Set("X-ASSUME-MERCHANT", c.merchantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypay request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypay status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// authHeader builds the OPA HMAC authorization header.
func (c *Client) authHeader(method, path, contentType string, payload []byte) string {
	epoch := strconv.FormatInt(c.now().Unix(), 10)
	nonce := newNonce()

	hashed := "empty"
	if len(payload) > 0 {
		sum := md5.Sum(append([]byte(contentType), payload...))
		hashed = base64.StdEncoding.EncodeToString(sum[:])
	}
	if contentType == "" {
		contentType = "empty"
	}

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(strings.Join([]string{path, method, nonce, epoch, contentType, hashed}, "\n")))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("hmac OPA-Auth:%s:%s:%s:%s:%s", c.apiKey, signature, nonce, epoch, hashed)
}

func newNonce() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
