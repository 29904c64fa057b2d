package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/recall"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) error = %v, want store not-found", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get(k) = %q, %v, want v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete error = %v, want store not-found", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("v"), 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := s.Get(ctx, "short"); err != nil {
		t.Fatalf("Get before expiry error = %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Get(ctx, "short"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after expiry error = %v, want store not-found", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	err := s.BatchSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	})
	if err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet = %v, want a=1 b=2 and missing absent", got)
	}
}

func TestMemoryStore_ZSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	for member, score := range map[string]float64{"a": 1, "b": 3, "c": 2, "d": 3} {
		if err := s.ZAdd(ctx, "rank", score, member); err != nil {
			t.Fatalf("ZAdd() error = %v", err)
		}
	}

	got, err := s.ZRange(ctx, "rank", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	// score descending, ties broken by member
	want := []string{"b", "d", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ZRange = %v, want %v", got, want)
		}
	}

	top, err := s.ZRange(ctx, "rank", 0, 1)
	if err != nil || len(top) != 2 || top[0] != "b" || top[1] != "d" {
		t.Errorf("ZRange(0,1) = %v, %v, want [b d]", top, err)
	}

	score, err := s.ZScore(ctx, "rank", "c")
	if err != nil || score != 2 {
		t.Errorf("ZScore(c) = %v, %v, want 2", score, err)
	}
	if _, err := s.ZScore(ctx, "rank", "ghost"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(ghost) error = %v, want store not-found", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.HSet(ctx, "user:1", "name", []byte("alice")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	if err := s.HSet(ctx, "user:1", "tier", []byte("gold")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}

	got, err := s.HGet(ctx, "user:1", "name")
	if err != nil || string(got) != "alice" {
		t.Errorf("HGet = %q, %v, want alice", got, err)
	}

	all, err := s.HGetAll(ctx, "user:1")
	if err != nil || len(all) != 2 {
		t.Fatalf("HGetAll = %v, %v, want 2 fields", all, err)
	}
	if string(all["tier"]) != "gold" {
		t.Errorf("HGetAll[tier] = %q, want gold", all["tier"])
	}
}

func TestSaveInteractions_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	interactions := map[string]map[string]float64{
		"u1": {"p1": 1.0, "p2": 0.5},
		"u2": {"p2": 1.0},
	}
	if err := SaveInteractions(ctx, s, "cf", interactions); err != nil {
		t.Fatalf("SaveInteractions() error = %v", err)
	}

	adapter := recall.NewStoreInteractionAdapter(s, "cf")
	got, err := adapter.GetAllInteractions(ctx)
	if err != nil {
		t.Fatalf("GetAllInteractions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d users, want 2", len(got))
	}
	if got["u1"]["p2"] != 0.5 || got["u2"]["p2"] != 1.0 {
		t.Errorf("round trip mismatch: %v", got)
	}
}

func TestStoreInteractionAdapter_EmptyStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	adapter := recall.NewStoreInteractionAdapter(s, "cf")
	got, err := adapter.GetAllInteractions(context.Background())
	if err != nil {
		t.Fatalf("GetAllInteractions() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty store produced %d users, want 0", len(got))
	}
}
