package notify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/jpalmerr/pjsipwatch"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 10 * time.Second

// maxResponseBodySize caps how much of a failed sink response is kept.
const maxResponseBodySize = 64 << 10 // 64KB

const (
	defaultMaxIdleConns    = 4
	defaultIdleConnTimeout = 90 * time.Second
)

// newTransport returns a pooled transport shared by every delivery of one
// notifier. Timeouts are applied per request via context.
func newTransport() http.RoundTripper {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConns,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
}

// exchange records the HTTP outcome of one delivery, so errors from the
// Slack client can carry the status code and body the sink sent back.
type exchange struct {
	next       http.RoundTripper
	statusCode int
	body       string
}

// newExchange returns an HTTP client for a single delivery and the exchange
// that observes it.
func newExchange(next http.RoundTripper) (*http.Client, *exchange) {
	ex := &exchange{next: next}
	return &http.Client{Transport: ex}, ex
}

func (e *exchange) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := e.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	e.statusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		_ = resp.Body.Close()
		e.body = strings.TrimSpace(string(data))
		resp.Body = io.NopCloser(bytes.NewReader(data))
	}
	return resp, nil
}

// notifyError maps an error from the Slack client onto
// [*pjsipwatch.NotifyError] tagged with sink.
func (e *exchange) notifyError(sink string, err error) *pjsipwatch.NotifyError {
	var (
		rateLimited *slack.RateLimitedError
		statusErr   slack.StatusCodeError
		apiErr      slack.SlackErrorResponse
	)

	var cause string
	switch {
	case errors.As(err, &rateLimited):
		cause = fmt.Sprintf("rate limited, retry after %s", rateLimited.RetryAfter)
	case errors.As(err, &statusErr):
		cause = "unexpected response"
		if e.body != "" {
			cause = fmt.Sprintf("unexpected response: %s", truncate(e.body, 200))
		}
	case errors.As(err, &apiErr):
		cause = "API error: " + apiErr.Err
	case e.statusCode >= 200 && e.statusCode < 300:
		// the sink answered but the reply could not be decoded
		cause = "invalid API response"
	default:
		cause = "request failed: " + err.Error()
	}

	return &pjsipwatch.NotifyError{
		Sink:       sink,
		Cause:      cause,
		StatusCode: e.statusCode,
		Err:        err,
	}
}

// truncate shortens s to at most n bytes, marking the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
