package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinWork: 10}

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestRange_CoversEveryItemOnce(t *testing.T) {
	tests := []struct {
		name string
		n    int
		work int
		cfg  Config
	}{
		{"sequential", 100, 1, Config{Enabled: false}},
		{"small", 5, 1, Config{Enabled: true, NumWorkers: 8, MinWork: 64}},
		{"parallel", 1000, 3, Config{Enabled: true, NumWorkers: 4, MinWork: 30}},
		{"uneven", 17, 100, Config{Enabled: true, NumWorkers: 3, MinWork: 1}},
		{"default", 4096, 512, DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.n)
			var mu sync.Mutex
			chunks := 0

			Range(tt.n, tt.work, func(lo, hi int) {
				mu.Lock()
				chunks++
				mu.Unlock()
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			}, tt.cfg)

			for i, c := range seen {
				if c != 1 {
					t.Fatalf("item %d visited %d times", i, c)
				}
			}
			if chunks < 1 {
				t.Error("expected at least one chunk")
			}
		})
	}
}

func TestRange_Sequential(t *testing.T) {
	calls := 0
	Range(10, 1, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 10 {
			t.Errorf("got [%d, %d), want [0, 10)", lo, hi)
		}
	}, Config{Enabled: true, NumWorkers: 4, MinWork: 100})

	if calls != 1 {
		t.Errorf("small work should run in one call, got %d", calls)
	}

	Range(0, 1, func(int, int) { t.Error("f called for n = 0") }, DefaultConfig())
}
