package pin

import (
	"sync"
	"testing"
)

func TestGuard_PinUnpinBalance(t *testing.T) {
	g := NewGuard()

	buf := make([]byte, 16)
	tok := g.Pin(buf)

	if g.Outstanding() != 1 {
		t.Fatalf("Outstanding = %d after Pin", g.Outstanding())
	}
	if len(tok.Bytes()) != 16 {
		t.Fatalf("Bytes len = %d", len(tok.Bytes()))
	}

	tok.Unpin()
	if g.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d after Unpin", g.Outstanding())
	}
}

func TestGuard_DoubleUnpinCountsOnce(t *testing.T) {
	g := NewGuard()

	tok := g.Pin(make([]byte, 4))
	tok.Unpin()
	tok.Unpin()

	if g.Unpins() != 1 {
		t.Fatalf("Unpins = %d, want 1", g.Unpins())
	}
	if g.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d", g.Outstanding())
	}
}

func TestGuard_NilBuffer(t *testing.T) {
	g := NewGuard()

	tok := g.Pin(nil)
	if tok.Bytes() != nil {
		t.Fatal("expected nil bytes")
	}
	tok.Unpin()

	if g.Pins() != 1 || g.Unpins() != 1 {
		t.Fatalf("pins=%d unpins=%d", g.Pins(), g.Unpins())
	}
}

func TestGuard_ConcurrentPins(t *testing.T) {
	g := NewGuard()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := g.Pin(make([]byte, 8))
			tok.Unpin()
		}()
	}
	wg.Wait()

	if g.Pins() != 64 || g.Unpins() != 64 {
		t.Fatalf("pins=%d unpins=%d", g.Pins(), g.Unpins())
	}
	if g.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d", g.Outstanding())
	}
}
