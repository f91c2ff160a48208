package line

import (
	"encoding/json"
	"strconv"

	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

// newReceiptMessage builds the flex receipt bubble: store header, order
// reference, amount, settlement time, and a link to the order details page.
func newReceiptMessage(order domain.Order, settledAt, detailsURL, imageURL string) json.RawMessage {
	amount := strconv.FormatInt(order.Amount, 10) + " " + order.Currency

	bodyContents := []map[string]any{
		{"type": "text", "text": "領収書", "weight": "bold", "size": "xl"},
		{
			"type":   "box",
			"layout": "vertical",
			"margin": "lg",
			"contents": []map[string]any{
				receiptRow("注文番号", order.OrderID),
				receiptRow("金額", amount),
				receiptRow("決済日時", settledAt),
			},
		},
	}

	bubble := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"contents": bodyContents,
		},
		"footer": map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []map[string]any{{
				"type":  "button",
				"style": "link",
				"action": map[string]any{
					"type":  "uri",
					"label": "注文詳細",
					"uri":   detailsURL,
				},
			}},
		},
	}
	if imageURL != "" {
		bubble["hero"] = map[string]any{
			"type":        "image",
			"url":         imageURL,
			"size":        "full",
			"aspectRatio": "20:13",
			"aspectMode":  "cover",
		}
	}

	msg := map[string]any{
		"type":     "flex",
		"altText":  "お支払いが完了しました",
		"contents": bubble,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

func receiptRow(label, value string) map[string]any {
	return map[string]any{
		"type":   "box",
		"layout": "baseline",
		"contents": []map[string]any{
			{"type": "text", "text": label, "color": "#aaaaaa", "size": "sm", "flex": 2},
			{"type": "text", "text": value, "wrap": true, "size": "sm", "flex": 5},
		},
	}
}
