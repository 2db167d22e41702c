package store

import (
	"sync"
	"testing"
	"time"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	st := store.Status()
	if st.Latest != nil {
		t.Errorf("Status().Latest = %+v, want nil", st.Latest)
	}
	if st.Cycles != 0 || st.Changes != 0 {
		t.Errorf("Status() counters = %d/%d, want 0/0", st.Cycles, st.Changes)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()
	checked := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	store.Update(Observation{
		CycleID:     "c1",
		CheckedAt:   checked,
		Fingerprint: "abc",
		Changed:     true,
		Endpoints: []Endpoint{
			{Name: "500/500", State: "Unavailable", Channels: "0 of inf"},
		},
	})

	st := store.Status()
	if st.Latest == nil {
		t.Fatal("Status().Latest = nil")
	}
	if st.Latest.CycleID != "c1" {
		t.Errorf("Latest.CycleID = %q, want %q", st.Latest.CycleID, "c1")
	}
	if len(st.Latest.Endpoints) != 1 || st.Latest.Endpoints[0].Name != "500/500" {
		t.Errorf("Latest.Endpoints = %+v", st.Latest.Endpoints)
	}
	if st.LastChangeAt == nil || !st.LastChangeAt.Equal(checked) {
		t.Errorf("LastChangeAt = %v, want %v", st.LastChangeAt, checked)
	}
	if st.Cycles != 1 || st.Changes != 1 {
		t.Errorf("counters = %d/%d, want 1/1", st.Cycles, st.Changes)
	}
}

func TestMemoryStore_UnchangedKeepsLastChange(t *testing.T) {
	store := NewMemoryStore()
	first := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	store.Update(Observation{CycleID: "c1", CheckedAt: first, Changed: true})
	store.Update(Observation{CycleID: "c2", CheckedAt: second, Changed: false})

	st := store.Status()
	if st.Latest.CycleID != "c2" {
		t.Errorf("Latest.CycleID = %q, want %q", st.Latest.CycleID, "c2")
	}
	if !st.LastChangeAt.Equal(first) {
		t.Errorf("LastChangeAt = %v, want %v", st.LastChangeAt, first)
	}
	if st.Cycles != 2 || st.Changes != 1 {
		t.Errorf("counters = %d/%d, want 2/1", st.Cycles, st.Changes)
	}
}

func TestMemoryStore_StatusIsCopy(t *testing.T) {
	store := NewMemoryStore()
	msg := "boom"
	endpoints := []Endpoint{{Name: "500/500", State: "Unavailable", Channels: "0 of inf"}}

	store.Update(Observation{CycleID: "c1", Endpoints: endpoints, NotifyError: &msg})

	// mutate caller-owned data after Update
	endpoints[0].State = "Not in use"
	msg = "changed"

	st := store.Status()
	if st.Latest.Endpoints[0].State != "Unavailable" {
		t.Errorf("stored endpoint mutated via caller slice: %+v", st.Latest.Endpoints[0])
	}
	if *st.Latest.NotifyError != "boom" {
		t.Errorf("stored NotifyError mutated via caller pointer: %q", *st.Latest.NotifyError)
	}

	// mutate the returned copy
	st.Latest.Endpoints[0].Name = "x"
	if store.Status().Latest.Endpoints[0].Name != "500/500" {
		t.Error("Status() returned shared endpoint slice")
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		store.Update(Observation{CycleID: "c1"})
	}()

	select {
	case obs := <-ch:
		if obs.CycleID != "c1" {
			t.Errorf("received CycleID = %q, want %q", obs.CycleID, "c1")
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after Unsubscribe()")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	// second call must be a no-op
	store.Unsubscribe(ch)
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	// a subscriber that never reads
	_ = store.Subscribe()

	done := make(chan bool)
	go func() {
		for i := 0; i < 200; i++ {
			store.Update(Observation{CycleID: "c"})
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Update() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	numGoroutines := 10
	numUpdates := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				store.Update(Observation{CycleID: "c", Changed: j%2 == 0})
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				_ = store.Status()
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	if got := store.Status().Cycles; got != int64(numGoroutines*numUpdates) {
		t.Errorf("Cycles = %d, want %d", got, numGoroutines*numUpdates)
	}
}
