// Standalone mock Slack for trying the CLI without a workspace.
//
// Usage:
//
//	go run ./example/cmd/mockslack
//
// Then in another terminal:
//
//	go run ./cmd/pjsipwatch example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

func main() {
	fmt.Println("Mock Slack starting on :9999")
	fmt.Println("  webhook:  http://localhost:9999/webhook")
	fmt.Println("  web API:  http://localhost:9999/api/chat.postMessage")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	http.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid_payload", http.StatusBadRequest)
			return
		}
		printMessage("webhook", body.Text)
		_, _ = w.Write([]byte("ok"))
	})

	http.HandleFunc("/api/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := r.ParseForm(); err != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid_form_data"})
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.PostForm.Get("token")
		}
		if token == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "not_authed"})
			return
		}
		body := struct{ Channel, Text string }{r.PostForm.Get("channel"), r.PostForm.Get("text")}
		printMessage(body.Channel, body.Text)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": body.Channel})
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printMessage(dest, text string) {
	fmt.Printf("[%s]\n%s\n\n", dest, text)
}
