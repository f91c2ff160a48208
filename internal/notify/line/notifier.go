// Package line pushes receipt messages to the buyer over the LINE Messaging
// API, using a short-lived channel access token resolved from the token store.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

const defaultAPIBaseURL = "https://api.line.me"

const pushMessagePath = "/v2/bot/message/push"

// TokenStore resolves the short-lived channel access token for a channel.
type TokenStore interface {
	GetChannelAccessToken(ctx context.Context, channelID string) (string, error)
}

type Config struct {
	// ChannelID is the OA channel the receipt is pushed from.
	ChannelID string
	// LIFFURL and DetailsPath compose the "order details" link in the receipt.
	LIFFURL     string
	DetailsPath string
	// ReceiptImageURL decorates the top of the receipt bubble; optional.
	ReceiptImageURL string
}

type Notifier struct {
	tokens     TokenStore
	cfg        Config
	httpClient *http.Client
	baseURL    string
}

func NewNotifier(tokens TokenStore, cfg Config, opts ...Option) *Notifier {
	n := &Notifier{
		tokens:     tokens,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type Option func(*Notifier)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *Notifier) {
		if hc != nil {
			n.httpClient = hc
		}
	}
}

// WithBaseURL points the notifier at a different API host (useful for tests).
func WithBaseURL(u string) Option {
	return func(n *Notifier) {
		if u != "" {
			n.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// SendReceipt composes the receipt flex message for a settled order and pushes
// it to the order's user.
func (n *Notifier) SendReceipt(ctx context.Context, order domain.Order, settledAt string) error {
	token, err := n.tokens.GetChannelAccessToken(ctx, n.cfg.ChannelID)
	if err != nil {
		return fmt.Errorf("channel %s: %w", n.cfg.ChannelID, err)
	}

	detailsURL := fmt.Sprintf("%s%s?orderId=%s",
		n.cfg.LIFFURL, n.cfg.DetailsPath, url.QueryEscape(order.OrderID))

	msg := pushRequest{
		To:       order.UserID,
		Messages: []json.RawMessage{newReceiptMessage(order, settledAt, detailsURL, n.cfg.ReceiptImageURL)},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+pushMessagePath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push message status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type pushRequest struct {
	To       string            `json:"to"`
	Messages []json.RawMessage `json:"messages"`
}
