package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chemradar/internal/domain"
	"chemradar/internal/ports"
)

// Notifier posts interactive cards to a Feishu custom-bot webhook. Delivery
// counts as acknowledged only when the remote response reports code 0, not
// merely when the HTTP request completes.
type Notifier struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint. The URL comes from
// configuration; the component never reads the process environment.
func NewNotifier(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// PublishDigest renders the selection into a card and posts it. Returns
// (true, nil) only on a remote acknowledgement.
func (n *Notifier) PublishDigest(ctx context.Context, selection []domain.EnrichedArticle) (bool, error) {
	if n.webhookURL == "" || n.client == nil {
		return false, fmt.Errorf("feishu notifier misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"msg_type": "interactive",
		"card":     buildCard(selection, n.now()),
	})
	if err != nil {
		return false, fmt.Errorf("marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("post card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("feishu error: %s", resp.Status)
	}

	var ack struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return false, fmt.Errorf("decode feishu response: %w", err)
	}
	if ack.Code != 0 {
		return false, fmt.Errorf("feishu api error %d: %s", ack.Code, ack.Msg)
	}

	return true, nil
}
