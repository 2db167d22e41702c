package store

import (
	"sync"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 16

// MemoryStore is an in-memory implementation of [Store].
//
// Only the latest observation is kept. Subscribers receive updates via
// buffered channels; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the watch loop.
type MemoryStore struct {
	mu         sync.RWMutex
	latest     *Observation
	lastChange *Observation
	cycles     int64
	changes    int64

	subscribers map[chan Observation]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan Observation]struct{}),
	}
}

// Update stores obs as the latest observation and notifies all subscribers.
func (m *MemoryStore) Update(obs Observation) {
	obs = copyObservation(obs)

	m.mu.Lock()
	m.latest = &obs
	m.cycles++
	if obs.Changed {
		m.changes++
		m.lastChange = &obs
	}
	m.mu.Unlock()

	m.notifySubscribers(obs)
}

// Status returns a copy of the current state.
func (m *MemoryStore) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		Cycles:  m.cycles,
		Changes: m.changes,
	}
	if m.latest != nil {
		latest := copyObservation(*m.latest)
		st.Latest = &latest
	}
	if m.lastChange != nil {
		at := m.lastChange.CheckedAt
		st.LastChangeAt = &at
	}
	return st
}

// Subscribe creates a new subscription and returns a channel for receiving
// observations.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Observation {
	ch := make(chan Observation, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Observation) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends obs to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(obs Observation) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- obs:
		default:
			// subscriber is slow, drop the message
		}
	}
}

// copyObservation copies the mutable parts of obs.
func copyObservation(obs Observation) Observation {
	if obs.Endpoints != nil {
		obs.Endpoints = append([]Endpoint(nil), obs.Endpoints...)
	}
	if obs.NotifyError != nil {
		msg := *obs.NotifyError
		obs.NotifyError = &msg
	}
	return obs
}
