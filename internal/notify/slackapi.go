package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const (
	// SinkSlackAPI names the Web API transport in errors and logs.
	SinkSlackAPI = "slack-api"

	// DefaultChannel is used when no channel is configured.
	DefaultChannel = "#general"

	// DefaultAPIURL is the Slack Web API base URL.
	DefaultAPIURL = "https://slack.com/api"
)

// SlackAPI posts messages with the Slack Web API chat.postMessage method
// through the slack-go client.
type SlackAPI struct {
	token     string
	channel   string
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

// SlackAPIOption configures a [SlackAPI].
type SlackAPIOption func(*SlackAPI)

// WithBaseURL overrides the Web API base URL, e.g. for a proxy, a mock
// server or tests. An empty u keeps [DefaultAPIURL].
func WithBaseURL(u string) SlackAPIOption {
	return func(s *SlackAPI) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewSlackAPI creates a [SlackAPI] that posts to channel with token.
// An empty channel uses [DefaultChannel]; a zero timeout uses [DefaultTimeout].
func NewSlackAPI(token, channel string, timeout time.Duration, opts ...SlackAPIOption) (*SlackAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("slack API token cannot be empty")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &SlackAPI{
		token:     token,
		channel:   channel,
		baseURL:   DefaultAPIURL,
		timeout:   timeout,
		transport: newTransport(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Channel returns the channel messages are posted to.
func (s *SlackAPI) Channel() string {
	return s.channel
}

// Notify calls chat.postMessage once. A non-200 status, a rate limit or a
// reply with "ok": false and an error code is a failure.
func (s *SlackAPI) Notify(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpClient, ex := newExchange(s.transport)
	api := slack.New(s.token,
		slack.OptionHTTPClient(httpClient),
		slack.OptionAPIURL(s.baseURL+"/"),
	)

	_, _, err := api.PostMessageContext(ctx, s.channel, slack.MsgOptionText(message, false))
	if err != nil {
		return ex.notifyError(SinkSlackAPI, err)
	}
	return nil
}
