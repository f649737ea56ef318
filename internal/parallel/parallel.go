// Package parallel splits row-wise tensor kernels across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use.
	MinWork    int  // Minimum work units per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinWork:    1 << 14, // About 16K multiply-adds.
	}
}

// Range calls f on disjoint chunks [lo, hi) that together cover [0, n).
//
// workPerItem estimates the cost of one item; chunks hold at least
// cfg.MinWork units. Falls back to a single f(0, n) call if parallelism is
// disabled or the total work is too small. Range returns when every chunk
// is done.
func Range(n, workPerItem int, f func(lo, hi int), cfg Config) {
	if n <= 0 {
		return
	}
	workPerItem = max(workPerItem, 1)
	minItems := max((cfg.MinWork+workPerItem-1)/workPerItem, 1)
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*minItems {
		f(0, n)
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, minItems)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n), one item per unit of work.
func For(n int, f func(i int), cfg Config) {
	Range(n, 1, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f(i)
		}
	}, cfg)
}
