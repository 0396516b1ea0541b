package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := gen.Generate().String()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ULID %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateSorted(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate().String()
	for i := 0; i < 100; i++ {
		next := gen.Generate().String()
		if next <= prev {
			t.Fatalf("ULIDs should increase: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"request", NewRequestID().String(), RequestPrefix},
		{"refresh", NewRefreshID().String(), RefreshPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.id, tt.prefix+"_") {
				t.Errorf("ID should start with %q, got %s", tt.prefix+"_", tt.id)
			}
			if !IsValid(tt.id) {
				t.Errorf("ID should parse: %s", tt.id)
			}
		})
	}
}

func TestFlowID(t *testing.T) {
	a, b := NewFlowID(), NewFlowID()
	if a == b {
		t.Error("flow IDs should be unique")
	}
	if !IsFlowID(a.String()) {
		t.Errorf("flow ID should be a canonical UUID: %s", a)
	}
	if IsFlowID("not-a-uuid") || IsFlowID(NewRequestID().String()) {
		t.Error("IsFlowID accepted a non-UUID")
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Timestamp(NewRequestID().String())
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v out of range", ts)
	}

	if _, err := Timestamp("req_garbage"); err == nil {
		t.Error("expected error for invalid ULID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := Default()

	var (
		mu   sync.Mutex
		seen = make(map[RequestID]struct{})
		wg   sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := RequestID(gen.GenerateWithPrefix(RequestPrefix))
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Errorf("expected 1000 unique IDs, got %d", len(seen))
	}
}
