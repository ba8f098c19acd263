package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWebhookTimeout = 10 * time.Second

func newWebhookClient() *resty.Client {
	return resty.New().
		SetTimeout(defaultWebhookTimeout).
		SetHeader("Content-Type", "application/json")
}

// postJSON sends payload to url and accepts any 2xx response.
func postJSON(ctx context.Context, client *resty.Client, url string, payload any) error {
	resp, err := client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
