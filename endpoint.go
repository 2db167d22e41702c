package pjsipwatch

import (
	"fmt"
	"strings"
)

// EndpointRecord is one SIP endpoint as reported by the PBX.
//
// All three fields are non-empty for records produced by [Parse]. State and
// Channels are free text: the PBX vocabulary is open-ended, so values such as
// "Unavailable", "Not in use" or "In use" are kept as reported rather than
// mapped onto an enum.
type EndpointRecord struct {
	// Name is the endpoint identifier, e.g. "500/500" or "Voipfone".
	Name string `json:"name"`

	// State is the registration/usage label, e.g. "Not in use".
	State string `json:"state"`

	// Channels is the channel usage summary, e.g. "0 of inf".
	Channels string `json:"channels"`
}

// String renders the record as a single aligned line.
func (r EndpointRecord) String() string {
	return fmt.Sprintf("%s  %s  %s", r.Name, r.State, r.Channels)
}

// Snapshot is the complete, ordered set of endpoints observed in one poll.
//
// Order is the order of appearance in the command output and is significant:
// two snapshots holding the same records in a different order have different
// fingerprints.
type Snapshot struct {
	Endpoints []EndpointRecord `json:"endpoints"`
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Endpoints)
}

// Equal reports whether both snapshots hold the same records in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Endpoints) != len(other.Endpoints) {
		return false
	}
	for i := range s.Endpoints {
		if s.Endpoints[i] != other.Endpoints[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s.Endpoints == nil {
		return Snapshot{}
	}
	return Snapshot{Endpoints: append([]EndpointRecord(nil), s.Endpoints...)}
}

// Render returns a human-readable listing of every record, one per line,
// in snapshot order.
func (s Snapshot) Render() string {
	if len(s.Endpoints) == 0 {
		return "(no endpoints reported)"
	}

	// pad names so states line up like the PBX output does
	width := 0
	for _, r := range s.Endpoints {
		if len(r.Name) > width {
			width = len(r.Name)
		}
	}

	var b strings.Builder
	for i, r := range s.Endpoints {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-*s  %s  %s", width, r.Name, r.State, r.Channels)
	}
	return b.String()
}
