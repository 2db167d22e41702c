package notify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/slack-go/slack"
)

// SinkWebhook names the incoming-webhook transport in errors and logs.
const SinkWebhook = "slack-webhook"

// Webhook posts messages to a Slack-compatible incoming webhook.
type Webhook struct {
	url       string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewWebhook creates a [Webhook] for rawURL. A zero timeout uses
// [DefaultTimeout].
//
// Returns an error if rawURL is not an absolute http(s) URL.
func NewWebhook(rawURL string, timeout time.Duration) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New("invalid webhook URL: " + err.Error())
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New("webhook URL must be an absolute http:// or https:// URL")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Webhook{
		url:       rawURL,
		timeout:   timeout,
		transport: newTransport(),
	}, nil
}

// Notify POSTs {"text": message}. Only a 200 response is success.
func (w *Webhook) Notify(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	httpClient, ex := newExchange(w.transport)
	err := slack.PostWebhookCustomHTTPContext(ctx, w.url, httpClient, &slack.WebhookMessage{Text: message})
	if err != nil {
		return ex.notifyError(SinkWebhook, err)
	}
	return nil
}
