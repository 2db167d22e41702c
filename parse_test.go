package pjsipwatch

import (
	"reflect"
	"testing"
)

// asteriskOutput is real `pjsip list endpoints` output with detail lines.
const asteriskOutput = `
 Endpoint:  <Endpoint/CID.....................................>  <State.....>  <Channels.>
    I/OAuth:  <AuthId/UserName...........................................................>
        Aor:  <Aor............................................>  <MaxContact>
      Contact:  <Aor/ContactUri..........................> <Hash....> <Status> <RTT(ms)..>
  Transport:  <TransportId........>  <Type>  <cos>  <tos>  <BindAddress..................>
   Identify:  <Identify/Endpoint.........................................................>
        Match:  <criteria.........................>
    Channel:  <ChannelId......................................>  <State.....>  <Time.....>
        Exten: <DialedExten...........>  CLCID: <ConnectedLineCID.......>
==========================================================================================

 Endpoint:  500/500                                              Unavailable   0 of inf
     InAuth:  500/500
        Aor:  500                                                1

 Endpoint:  502/502                                              Not in use    0 of inf
     InAuth:  502/502
        Aor:  502                                                1
      Contact:  502/sip:502@192.168.1.20:5060            5c0c7a2c1e Avail        12.345

 Endpoint:  Voipfone                                             In use        1 of inf
    OutAuth:  Voipfone/123456
        Aor:  Voipfone                                           1

Objects found: 3
`

func TestParse_Example(t *testing.T) {
	raw := "Endpoint:  500/500   Unavailable   0 of inf\n" +
		"Endpoint:  502/502   Not in use    0 of inf\n"

	got := Parse(raw)

	want := []EndpointRecord{
		{Name: "500/500", State: "Unavailable", Channels: "0 of inf"},
		{Name: "502/502", State: "Not in use", Channels: "0 of inf"},
	}
	if !reflect.DeepEqual(got.Snapshot.Endpoints, want) {
		t.Errorf("Parse() = %+v, want %+v", got.Snapshot.Endpoints, want)
	}
	if len(got.Unmatched) != 0 {
		t.Errorf("Unmatched = %+v, want none", got.Unmatched)
	}
}

func TestParse_AsteriskOutput(t *testing.T) {
	got := Parse(asteriskOutput)

	want := []EndpointRecord{
		{Name: "500/500", State: "Unavailable", Channels: "0 of inf"},
		{Name: "502/502", State: "Not in use", Channels: "0 of inf"},
		{Name: "Voipfone", State: "In use", Channels: "1 of inf"},
	}
	if !reflect.DeepEqual(got.Snapshot.Endpoints, want) {
		t.Errorf("Parse() = %+v, want %+v", got.Snapshot.Endpoints, want)
	}
	if len(got.Unmatched) == 0 {
		t.Error("Unmatched is empty, want header and detail lines reported")
	}
	if got.Garbage() {
		t.Error("Garbage() = true for output with endpoint lines")
	}
}

func TestParse_UnmatchedLines(t *testing.T) {
	raw := "Some unrelated header\n\nEndpoint:  500/500   Unavailable   0 of inf\nObjects found: 1"

	got := Parse(raw)

	if got.Snapshot.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Snapshot.Len())
	}
	want := []UnmatchedLine{
		{Number: 1, Text: "Some unrelated header"},
		{Number: 4, Text: "Objects found: 1"},
	}
	if !reflect.DeepEqual(got.Unmatched, want) {
		t.Errorf("Unmatched = %+v, want %+v", got.Unmatched, want)
	}
}

func TestParse_SkipsWithoutRecord(t *testing.T) {
	got := Parse("Some unrelated header")

	if got.Snapshot.Len() != 0 {
		t.Errorf("Len() = %d, want 0", got.Snapshot.Len())
	}
	if !got.Garbage() {
		t.Error("Garbage() = false, want true for output with no endpoint lines")
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "\n\n", "   \r\n  "} {
		got := Parse(raw)
		if got.Snapshot.Len() != 0 || len(got.Unmatched) != 0 {
			t.Errorf("Parse(%q) = %+v, want empty result", raw, got)
		}
		if got.Garbage() {
			t.Errorf("Parse(%q).Garbage() = true, want false", raw)
		}
	}
}

func TestParse_LineShapes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *EndpointRecord
	}{
		{"tabs and CRLF", "Endpoint:\t100\tNot in use\t0 of inf\r", &EndpointRecord{"100", "Not in use", "0 of inf"}},
		{"leading whitespace", "     Endpoint:  100  Unavailable  0 of inf", &EndpointRecord{"100", "Unavailable", "0 of inf"}},
		{"padded state collapsed", "Endpoint:  100  Not   in    use  0 of inf", &EndpointRecord{"100", "Not in use", "0 of inf"}},
		{"padded channels collapsed", "Endpoint:  100  Busy  2  of  inf", &EndpointRecord{"100", "Busy", "2 of inf"}},
		{"multi-digit channels", "Endpoint:  trunk-1  In use  12 of inf", &EndpointRecord{"trunk-1", "In use", "12 of inf"}},
		{"no state", "Endpoint:  100  0 of inf", nil},
		{"digit in state", "Endpoint:  100  Ringing 2  0 of inf", nil},
		{"finite channel limit", "Endpoint:  100  In use  1 of 2", nil},
		{"missing label", "100  Unavailable  0 of inf", nil},
		{"wrong label", "Contact:  100  Unavailable  0 of inf", nil},
		{"column header", "Endpoint:  <Endpoint/CID.....>  <State.....>  <Channels.>", nil},
		{"trailing text", "Endpoint:  100  Unavailable  0 of inf extra", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.line)

			if tt.want == nil {
				if got.Snapshot.Len() != 0 {
					t.Errorf("Parse(%q) = %+v, want no record", tt.line, got.Snapshot.Endpoints)
				}
				if len(got.Unmatched) != 1 {
					t.Errorf("Unmatched = %d lines, want 1", len(got.Unmatched))
				}
				return
			}
			if got.Snapshot.Len() != 1 {
				t.Fatalf("Parse(%q) produced %d records, want 1", tt.line, got.Snapshot.Len())
			}
			if got.Snapshot.Endpoints[0] != *tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got.Snapshot.Endpoints[0], *tt.want)
			}
		})
	}
}

func TestParse_PreservesOrderAndDuplicates(t *testing.T) {
	raw := "Endpoint:  502/502  Not in use  0 of inf\n" +
		"Endpoint:  500/500  Unavailable  0 of inf\n" +
		"Endpoint:  502/502  In use  1 of inf\n"

	got := Parse(raw).Snapshot.Endpoints

	names := []string{got[0].Name, got[1].Name, got[2].Name}
	if !reflect.DeepEqual(names, []string{"502/502", "500/500", "502/502"}) {
		t.Errorf("names = %v, want source order with duplicate kept", names)
	}
	if got[0].State == got[2].State {
		t.Error("duplicate identifiers were collapsed")
	}
}

func TestParse_Deterministic(t *testing.T) {
	a := Parse(asteriskOutput)
	b := Parse(asteriskOutput)

	if !reflect.DeepEqual(a, b) {
		t.Error("Parse() returned different results for identical input")
	}
}

func TestNewLineParser(t *testing.T) {
	if _, err := NewLineParser(`(`); err == nil {
		t.Error("NewLineParser() expected error for invalid regex")
	}
	if _, err := NewLineParser(`^(\S+)\s+(\S+)$`); err == nil {
		t.Error("NewLineParser() expected error for 2 capture groups")
	}

	// chan_sip style: "Name/username  Host ... Status"
	p, err := NewLineParser(`^Peer:\s+(\S+)\s+(\D+?)\s+(\d+ calls)$`)
	if err != nil {
		t.Fatalf("NewLineParser() error = %v", err)
	}
	got := p.Parse("Peer:  100  OK  2 calls\nEndpoint:  100  Unavailable  0 of inf")
	if got.Snapshot.Len() != 1 || got.Snapshot.Endpoints[0].Channels != "2 calls" {
		t.Errorf("custom parser = %+v", got.Snapshot.Endpoints)
	}
	if len(got.Unmatched) != 1 {
		t.Errorf("Unmatched = %d, want 1", len(got.Unmatched))
	}
}
