package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

type webhookNotifier struct {
	url    string
	client *resty.Client
}

func NewWebhook(url string, headers map[string]string) (Notifier, error) {
	trimmedURL := strings.TrimSpace(url)
	if trimmedURL == "" {
		return nil, fmt.Errorf("config.url is required")
	}

	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers)

	return &webhookNotifier{
		url:    trimmedURL,
		client: client,
	}, nil
}

func (w *webhookNotifier) Notify(ctx context.Context, event Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("received non-success status: %s", resp.Status())
	}

	return nil
}
