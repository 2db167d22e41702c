package store

import "time"

// Endpoint is the storage representation of one endpoint record.
type Endpoint struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Channels string `json:"channels"`
}

// Observation is the storage representation of one poll cycle, optimized for
// JSON serialization. It is decoupled from the watcher's types to allow
// independent evolution.
type Observation struct {
	// CycleID identifies the poll cycle in logs.
	CycleID string `json:"cycle_id"`

	// CheckedAt is when the status command was started.
	CheckedAt time.Time `json:"checked_at"`

	// DurationMs is the cycle duration in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Fingerprint is the hex digest of the snapshot.
	Fingerprint string `json:"fingerprint"`

	// Changed reports whether the snapshot differed from the previous one.
	Changed bool `json:"changed"`

	// Notified reports whether a change message was delivered.
	Notified bool `json:"notified"`

	// NotifyError holds the delivery error message, nil if none.
	NotifyError *string `json:"notify_error"`

	// UnmatchedLines counts non-blank output lines that were not endpoints.
	UnmatchedLines int `json:"unmatched_lines"`

	// Garbage is true when no output line was recognized.
	Garbage bool `json:"garbage"`

	// Endpoints is the snapshot in PBX order.
	Endpoints []Endpoint `json:"endpoints"`
}

// Status is a point-in-time view of the store.
type Status struct {
	// Latest is the most recent observation, nil before the first cycle.
	Latest *Observation `json:"latest"`

	// LastChangeAt is when a changed snapshot was last observed.
	LastChangeAt *time.Time `json:"last_change_at"`

	// Cycles counts observations received.
	Cycles int64 `json:"cycles"`

	// Changes counts observations with Changed set.
	Changes int64 `json:"changes"`
}

// Store defines the interface for storing and subscribing to observations.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update records a new observation and notifies all subscribers.
	Update(obs Observation)

	// Status returns a copy of the current state.
	Status() Status

	// Subscribe returns a channel that receives observations.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Observation

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Observation)
}
