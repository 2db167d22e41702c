package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// mockEndpoint tracks state and next change time for a single endpoint.
type mockEndpoint struct {
	name         string
	stateIdx     int
	inUse        int
	nextChangeAt time.Time
}

var mockStates = []string{"Unavailable", "Not in use", "In use"}

// mockPBX stands in for `asterisk -rx "pjsip list endpoints"`. Each endpoint
// changes state every 20-60 seconds. It satisfies pjsipwatch.CommandRunner.
type mockPBX struct {
	mu        sync.Mutex
	endpoints []*mockEndpoint
	now       func() time.Time
}

func newMockPBX(names ...string) *mockPBX {
	p := &mockPBX{now: time.Now}
	for _, n := range names {
		p.endpoints = append(p.endpoints, &mockEndpoint{
			name:         n,
			stateIdx:     1,
			nextChangeAt: p.now().Add(nextChangeDelay()),
		})
	}
	return p
}

func nextChangeDelay() time.Duration {
	return time.Duration(20+rand.Intn(41)) * time.Second
}

// Run advances any endpoint whose change time has passed and renders the
// table the way Asterisk prints it.
func (p *mockPBX) Run(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for _, ep := range p.endpoints {
		if now.Before(ep.nextChangeAt) {
			continue
		}
		old := mockStates[ep.stateIdx]
		ep.stateIdx = (ep.stateIdx + 1) % len(mockStates)
		ep.inUse = 0
		if mockStates[ep.stateIdx] == "In use" {
			ep.inUse = 1
		}
		ep.nextChangeAt = now.Add(nextChangeDelay())
		slog.Info("mock endpoint changed", "endpoint", ep.name, "from", old, "to", mockStates[ep.stateIdx])
	}

	var b strings.Builder
	b.WriteString("\n Endpoint:  <Endpoint/CID.....................................>  <State.....>  <Channels.>\n")
	b.WriteString("==========================================================================================\n\n")
	for _, ep := range p.endpoints {
		fmt.Fprintf(&b, " Endpoint:  %-53s %-13s %d of inf\n", ep.name, mockStates[ep.stateIdx], ep.inUse)
		fmt.Fprintf(&b, "     InAuth:  %s/%s\n", ep.name, ep.name)
		fmt.Fprintf(&b, "        Aor:  %-53s 1\n\n", ep.name)
	}
	fmt.Fprintf(&b, "Objects found: %d\n", len(p.endpoints))
	return b.String(), nil
}
