package pjsipwatch

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Fingerprint is a 32-byte BLAKE3 digest of a [Snapshot]'s canonical encoding.
//
// Two snapshots with the same records in the same order always have the same
// fingerprint, in every process. Any change to a field, to the set of
// records, or to their order changes it.
type Fingerprint [32]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex characters, for log lines.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// snapshotDomainKey keys the BLAKE3 hasher so snapshot fingerprints never
// coincide with digests of the same bytes computed for another purpose.
// Changing it changes every fingerprint.
var snapshotDomainKey = [32]byte{
	'p', 'j', 's', 'i', 'p', 'w', 'a', 't', 'c', 'h', '.', 's', 'n', 'a', 'p', 's',
	'h', 'o', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// encMode is CBOR Core Deterministic Encoding (RFC 8949 §4.2). Strings are
// length-prefixed, so field boundaries cannot be confused with field content.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("pjsipwatch: CBOR encoder initialization failed: " + err.Error())
	}
}

// CanonicalBytes returns the canonical encoding of s that [FingerprintOf]
// hashes: a CBOR array of [name, state, channels] arrays in snapshot order.
// A nil and an empty snapshot encode identically.
func CanonicalBytes(s Snapshot) []byte {
	rows := make([][3]string, 0, len(s.Endpoints))
	for _, r := range s.Endpoints {
		rows = append(rows, [3]string{r.Name, r.State, r.Channels})
	}

	// arrays of strings always encode; an error here is a programming bug
	data, err := encMode.Marshal(rows)
	if err != nil {
		panic("pjsipwatch: snapshot encoding failed: " + err.Error())
	}
	return data
}

// FingerprintOf computes the fingerprint of s. It is pure and deterministic.
func FingerprintOf(s Snapshot) Fingerprint {
	hasher, err := blake3.NewKeyed(snapshotDomainKey[:])
	if err != nil {
		panic("pjsipwatch: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(CanonicalBytes(s))

	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp
}
