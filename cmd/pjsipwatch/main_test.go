package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleOutput = `
 Endpoint:  <Endpoint/CID.....................................>  <State.....>  <Channels.>
==========================================================================================

 Endpoint:  500/500                                              Unavailable   0 of inf
     InAuth:  500/500
 Endpoint:  502/502                                              Not in use    0 of inf

Objects found: 2
`

// execute runs the command tree with args and returns captured stdout and
// stderr.
func execute(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// slackHook is an incoming-webhook double that forwards each message text.
func slackHook(t *testing.T) (*httptest.Server, <-chan string) {
	t.Helper()

	texts := make(chan string, 16)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		texts <- body.Text
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts, texts
}

func waitText(t *testing.T, texts <-chan string) string {
	t.Helper()
	select {
	case s := <-texts:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
		return ""
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, context.Background(), "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "pjsipwatch dev") {
		t.Errorf("output = %q", out)
	}
}

func TestRoot_RequiresConfigArgument(t *testing.T) {
	stdout, stderr, err := execute(t, context.Background(), "")
	if err == nil {
		t.Fatal("expected error without config argument")
	}
	if !strings.Contains(stdout+stderr, "Usage:") {
		t.Errorf("usage not shown: %q", stdout+stderr)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", "sleep_time_seconds: 0\n")

	_, _, err := execute(t, context.Background(), "", path)
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("error = %v, want config load failure", err)
	}
}

func TestRoot_ExecFailureExitsWithError(t *testing.T) {
	ts, texts := slackHook(t)
	path := writeFile(t, "config.toml", `
sleep_time_seconds = 1

[slack]
webhook_url = "`+ts.URL+`"

[command]
path = "/nonexistent/pjsipwatch-asterisk"
`)

	_, _, err := execute(t, context.Background(), "", path)
	if err == nil || !strings.Contains(err.Error(), "watcher stopped") {
		t.Fatalf("error = %v, want watcher failure", err)
	}

	if got := waitText(t, texts); !strings.HasPrefix(got, "pjsipwatch started") {
		t.Errorf("first message = %q, want startup", got)
	}
	if got := waitText(t, texts); !strings.Contains(got, "failed to run status command") {
		t.Errorf("second message = %q, want failure alert", got)
	}
}

func TestRoot_WatchesUntilCancelled(t *testing.T) {
	ts, texts := slackHook(t)
	path := writeFile(t, "config.yaml", `
sleep_time_seconds: 3600
slack:
  webhook_url: `+ts.URL+`
command:
  path: sh
  args: ["-c", "echo 'Endpoint:  500/500  Unavailable  0 of inf'"]
  timeout: 5s
log:
  format: json
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, ctx, "", path)
		done <- err
	}()

	waitText(t, texts) // startup
	if got := waitText(t, texts); !strings.Contains(got, "500/500  Unavailable  0 of inf") {
		t.Errorf("change message = %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("error = %v, want nil after cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestValidate(t *testing.T) {
	path := writeFile(t, "config.yaml", `
sleep_time_seconds: 30
slack:
  api_token: xoxb-123
  channel: "#pbx"
http:
  listen: ":9108"
`)

	out, _, err := execute(t, context.Background(), "", "validate", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}

	for _, phrase := range []string{
		"Config is valid!",
		"Format:        yaml",
		"Interval:      30s",
		`Command:       asterisk -rx "pjsip list endpoints" (timeout 30s)`,
		"Notifications: Slack Web API (#pbx)",
		"Status server: :9108",
	} {
		if !strings.Contains(out, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"no credentials", "config.yaml", "sleep_time_seconds: 30\n"},
		{"bad toml", "config.toml", "sleep_time_seconds = \n"},
		{"bad jsonc", "config.jsonc", `{"sleep_time_seconds": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			_, _, err := execute(t, context.Background(), "", "validate", path)
			if err == nil || !strings.Contains(err.Error(), "invalid config") {
				t.Errorf("error = %v, want invalid config", err)
			}
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := execute(t, context.Background(), "", "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_Stdin(t *testing.T) {
	out, _, err := execute(t, context.Background(), sampleOutput, "parse", "-v")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	for _, phrase := range []string{
		"500/500  Unavailable  0 of inf",
		"502/502  Not in use  0 of inf",
		"2 endpoints, 4 unmatched lines",
		"fingerprint: ",
		"skipped line 6: InAuth:  500/500",
	} {
		if !strings.Contains(out, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestParse_FileJSON(t *testing.T) {
	path := writeFile(t, "endpoints.txt", sampleOutput)

	out, _, err := execute(t, context.Background(), "", "parse", "--json", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	var doc parseOutput
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(doc.Endpoints) != 2 || doc.Endpoints[1].State != "Not in use" {
		t.Errorf("endpoints = %+v", doc.Endpoints)
	}
	if len(doc.Fingerprint) != 64 {
		t.Errorf("fingerprint = %q, want 64 hex chars", doc.Fingerprint)
	}

	// same input from stdin gives the same fingerprint
	again, _, err := execute(t, context.Background(), sampleOutput, "parse", "--json")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if again != out {
		t.Error("stdin and file input produced different output")
	}
}

func TestParse_Garbage(t *testing.T) {
	out, stderr, err := execute(t, context.Background(), "Unable to connect to remote asterisk\n", "parse")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !strings.Contains(out, "no endpoints reported") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(stderr, "no endpoint lines") {
		t.Errorf("stderr = %q, want warning", stderr)
	}
}
