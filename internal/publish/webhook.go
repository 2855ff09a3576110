package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

// Webhook POSTs each status-change event as JSON to a configured URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Publish(ctx context.Context, ev domain.StatusEvent) error {
	if w == nil || w.URL == "" {
		return errors.New("webhook disabled")
	}
	body, _ := json.Marshal(ev)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("webhook non-2xx")
	}
	return nil
}
