package pjsipwatch

import (
	"fmt"
	"regexp"
	"strings"
)

// EndpointLinePattern matches one endpoint line of `pjsip list endpoints`:
//
//	Endpoint:  502/502                        Not in use    0 of inf
//
// Capture groups are the identifier, the state phrase (no digits) and the
// channel usage phrase. Column padding is variable, so every separator is \s+.
const EndpointLinePattern = `^Endpoint:\s+(\S+)\s+(\D+?)\s+(\d+\s+of\s+inf)$`

// Parser turns raw status command output into a [ParseResult].
//
// Implementations must be pure and must never panic: unrecognized lines are
// reported in [ParseResult.Unmatched], not as errors.
type Parser interface {
	Parse(raw string) ParseResult
}

// UnmatchedLine is a non-blank output line that did not look like an
// endpoint line. Typically a header, a footer, or a detail line such as
// "InAuth:" or "Contact:".
type UnmatchedLine struct {
	// Number is the 1-based line number within the raw output.
	Number int

	// Text is the trimmed line content.
	Text string
}

// ParseResult is the outcome of parsing one poll's output.
type ParseResult struct {
	Snapshot  Snapshot
	Unmatched []UnmatchedLine
}

// Garbage reports whether the output had content but none of it was
// recognized as an endpoint line. An empty output is not garbage: it is a
// valid, empty snapshot.
func (r ParseResult) Garbage() bool {
	return r.Snapshot.Len() == 0 && len(r.Unmatched) > 0
}

// LineParser is a [Parser] that matches each trimmed line against a regular
// expression with exactly three capture groups: name, state, channels.
type LineParser struct {
	re *regexp.Regexp
}

var defaultParser = &LineParser{re: regexp.MustCompile(EndpointLinePattern)}

// DefaultParser returns the parser for Asterisk `pjsip list endpoints` output.
func DefaultParser() *LineParser {
	return defaultParser
}

// NewLineParser compiles expr into a [LineParser].
//
// Returns an error if expr does not compile or does not have exactly three
// capture groups.
func NewLineParser(expr string) (*LineParser, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid line pattern: %w", err)
	}
	if re.NumSubexp() != 3 {
		return nil, fmt.Errorf("line pattern must have 3 capture groups (name, state, channels), got %d", re.NumSubexp())
	}
	return &LineParser{re: re}, nil
}

// Parse extracts endpoint records from raw using the default pattern.
func Parse(raw string) ParseResult {
	return defaultParser.Parse(raw)
}

// Parse implements [Parser].
//
// Lines are trimmed before matching and blank lines are ignored. Records keep
// the order in which they appear, and repeated identifiers are kept as
// separate records.
func (p *LineParser) Parse(raw string) ParseResult {
	var result ParseResult

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rec, ok := p.matchLine(line)
		if !ok {
			result.Unmatched = append(result.Unmatched, UnmatchedLine{Number: i + 1, Text: line})
			continue
		}
		result.Snapshot.Endpoints = append(result.Snapshot.Endpoints, rec)
	}

	return result
}

func (p *LineParser) matchLine(line string) (EndpointRecord, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return EndpointRecord{}, false
	}

	rec := EndpointRecord{
		Name:     m[1],
		State:    collapseSpace(m[2]),
		Channels: collapseSpace(m[3]),
	}
	if rec.Name == "" || rec.State == "" || rec.Channels == "" {
		return EndpointRecord{}, false
	}
	return rec, true
}

// collapseSpace trims s and folds runs of whitespace into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
