// Package notify implements the Slack transports behind the
// [pjsipwatch.Notifier] contract.
//
// Two interchangeable transports are provided, selected by configuration:
//
//   - [Webhook]: POSTs {"text": message} to an incoming-webhook URL
//   - [SlackAPI]: calls chat.postMessage with a bearer token and a channel
//
// Both deliver through github.com/slack-go/slack, make exactly one HTTP
// request per Notify call, apply a per-request timeout through the context,
// and report every failure as a [*pjsipwatch.NotifyError]. Neither retries.
package notify
