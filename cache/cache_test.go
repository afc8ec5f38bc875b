package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestGetMissReturnsNil(t *testing.T) {
	c, err := Open(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Get(context.Background(), "missing"); got != nil {
		t.Errorf("Get(missing) = %q, want nil", got)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := Open(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}
	blob := []byte("%PDF-fake content")
	if ok := c.Put(ctx, "1501.00963", blob); !ok {
		t.Fatal("Put returned false")
	}
	got := c.Get(ctx, "1501.00963")
	if !bytes.Equal(got, blob) {
		t.Errorf("Get = %q, want %q", got, blob)
	}
}

func TestSanitizeKeyReplacesSeparators(t *testing.T) {
	got := SanitizeKey("astro-ph/0412561v1")
	if got != "astro-ph_0412561v1" {
		t.Errorf("SanitizeKey = %q, want astro-ph_0412561v1", got)
	}
}

func TestPutRefusesOversizedBlob(t *testing.T) {
	c, err := Open(t.TempDir(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if ok := c.Put(context.Background(), "x", make([]byte, 11)); ok {
		t.Error("Put accepted a blob larger than the budget")
	}
}

// TestLRUEvictionScenario mirrors the literal scenario 6 values:
// budget 100, put A(40) B(40) C(40) evicts A; touching B then putting
// D(40) evicts C, so A and C are absent and B and D remain.
func TestLRUEvictionScenario(t *testing.T) {
	ctx := context.Background()
	c, err := Open(t.TempDir(), 100)
	if err != nil {
		t.Fatal(err)
	}

	put := func(key string, n int) {
		t.Helper()
		if !c.Put(ctx, key, bytes.Repeat([]byte{'x'}, n)) {
			t.Fatalf("Put(%s) failed", key)
		}
		time.Sleep(10 * time.Millisecond) // keep mtimes distinguishable
	}

	put("A", 40)
	put("B", 40)
	put("C", 40)

	if got := c.Get(ctx, "A"); got != nil {
		t.Error("A should have been evicted to admit C")
	}
	if got := c.Get(ctx, "B"); got == nil {
		t.Error("B should still be present")
	}
	time.Sleep(10 * time.Millisecond)

	put("D", 40)

	if got := c.Get(ctx, "A"); got != nil {
		t.Error("A should remain evicted")
	}
	if got := c.Get(ctx, "C"); got != nil {
		t.Error("C should have been evicted (oldest after touching B)")
	}
	if got := c.Get(ctx, "B"); got == nil {
		t.Error("B should still be present (touched before D's put)")
	}
	if got := c.Get(ctx, "D"); got == nil {
		t.Error("D should be present")
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.CurrentSize > stats.Budget {
		t.Errorf("CurrentSize %d exceeds budget %d", stats.CurrentSize, stats.Budget)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	c, err := Open(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}
	c.Put(ctx, "a", []byte("1"))
	c.Put(ctx, "b", []byte("2"))

	n := c.Clear(ctx)
	if n != 2 {
		t.Errorf("Clear removed %d, want 2", n)
	}
	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.NumEntries != 0 {
		t.Errorf("NumEntries after clear = %d, want 0", stats.NumEntries)
	}
}
