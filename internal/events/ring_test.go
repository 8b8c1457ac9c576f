package events

import (
	"fmt"
	"strings"
	"testing"
)

func TestRing_NewestFirst(t *testing.T) {
	r := NewRing(5)
	r.PushRaw("first")
	r.PushRaw("second")
	r.PushRaw("third")

	items := r.Items()
	want := []string{"third", "second", "first"}
	if len(items) != len(want) {
		t.Fatalf("Items() len = %d, want %d", len(items), len(want))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("Items()[%d] = %q, want %q", i, items[i], want[i])
		}
	}
}

func TestRing_EvictsOldest(t *testing.T) {
	r := NewRing(3)
	for i := 1; i <= 5; i++ {
		r.PushRaw(fmt.Sprintf("event %d", i))
	}

	items := r.Items()
	if len(items) != 3 {
		t.Fatalf("Items() len = %d, want 3", len(items))
	}
	if items[0] != "event 5" {
		t.Errorf("newest = %q, want %q", items[0], "event 5")
	}
	if items[2] != "event 3" {
		t.Errorf("oldest kept = %q, want %q", items[2], "event 3")
	}
}

func TestRing_PushAddsTimestamp(t *testing.T) {
	r := NewRing(2)
	r.Push("[NEW] [DEMO] BUY BRETT/USDT @ $1.00200")

	items := r.Items()
	if len(items) != 1 {
		t.Fatalf("Items() len = %d, want 1", len(items))
	}
	if !strings.HasSuffix(items[0], "[NEW] [DEMO] BUY BRETT/USDT @ $1.00200") {
		t.Errorf("entry %q does not end with the message", items[0])
	}
	// Метка вида HH:MM:SS перед сообщением
	if len(items[0]) < 9 || items[0][2] != ':' || items[0][5] != ':' {
		t.Errorf("entry %q does not start with a timestamp", items[0])
	}
}

func TestRing_ItemsReturnsCopy(t *testing.T) {
	r := NewRing(2)
	r.PushRaw("stable")

	items := r.Items()
	items[0] = "mutated"

	if got := r.Items()[0]; got != "stable" {
		t.Errorf("internal entry = %q, want %q", got, "stable")
	}
}
