package pjsipwatch

import "time"

// Cycle holds the outcome of one completed poll cycle.
//
// A Cycle is produced after the Comparing step, and after the Notifying step
// when the snapshot changed. It is handed to callbacks registered with
// [WithCycleCallback].
type Cycle struct {
	// ID uniquely identifies the cycle in logs.
	ID string

	// StartedAt is when the status command was started.
	StartedAt time.Time

	// Duration covers command, parse, compare and notification.
	Duration time.Duration

	// Snapshot is the parsed endpoint list.
	Snapshot Snapshot

	// Fingerprint is the digest of Snapshot.
	Fingerprint Fingerprint

	// Changed is true when Fingerprint differs from the last seen one, and
	// always true on the first cycle.
	Changed bool

	// Notified is true when a change message was delivered successfully.
	Notified bool

	// NotifyErr is the delivery error of the change message, if any.
	NotifyErr error

	// Unmatched lists non-blank output lines that were not endpoint lines.
	Unmatched []UnmatchedLine

	// Garbage is true when the output had content but no endpoint lines.
	Garbage bool
}
