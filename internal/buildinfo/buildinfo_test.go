package buildinfo

import (
	"sync"
	"testing"
	"time"
)

func TestMarkStartOnce(t *testing.T) {
	var wg sync.WaitGroup
	marks := make([]time.Time, 16)
	for i := range marks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			marks[i] = MarkStart()
		}(i)
	}
	wg.Wait()

	for i, m := range marks {
		if !m.Equal(marks[0]) {
			t.Fatalf("mark %d = %v, want %v", i, m, marks[0])
		}
	}
}

func TestUptimeMonotonic(t *testing.T) {
	MarkStart()

	first := Uptime()
	if first < 0 {
		t.Fatalf("Uptime() = %v, want >= 0", first)
	}
	if UptimeSeconds() > 60 {
		t.Errorf("UptimeSeconds() = %d right after start, want close to zero", UptimeSeconds())
	}

	time.Sleep(5 * time.Millisecond)
	second := Uptime()
	if second < first {
		t.Errorf("Uptime() went backwards: %v then %v", first, second)
	}
}
