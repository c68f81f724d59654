// Package parallel provides the bounded worker pool used by the pixel filters.
//
// Every function in this package is a barrier: it returns only after all of the
// work it scheduled has finished, so callers never observe partial results.
// Work is executed on an errgroup.Group whose concurrency is capped at the
// current worker limit (16 by default).
package parallel

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// MaxWorkers is the default degree of parallelism.
const MaxWorkers = 16

// minChunk keeps very small row ranges from being split into goroutines that
// cost more to schedule than the work they do.
const minChunk = 8

var limit atomic.Int32

func init() {
	limit.Store(MaxWorkers)
}

// SetWorkers changes the concurrency limit used by subsequent calls.
// Values below 1 restore the default; values above MaxWorkers are capped.
func SetWorkers(n int) {
	if n < 1 || n > MaxWorkers {
		n = MaxWorkers
	}
	limit.Store(int32(n))
}

// Workers returns the current concurrency limit.
func Workers() int {
	return int(limit.Load())
}

// Rows splits [0, n) into contiguous chunks and calls fn once per chunk.
// Chunks never overlap, so fn may write to disjoint destination rows (or
// columns) without synchronization.
func Rows(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := Workers()
	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}
	if chunk >= n {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		s, e := start, end
		g.Go(func() error {
			fn(s, e)
			return nil
		})
	}
	_ = g.Wait()
}

// Invoke runs every fn concurrently and waits for all of them.
func Invoke(fns ...func()) {
	switch len(fns) {
	case 0:
		return
	case 1:
		fns[0]()
		return
	}

	var g errgroup.Group
	g.SetLimit(Workers())
	for _, fn := range fns {
		f := fn
		g.Go(func() error {
			f()
			return nil
		})
	}
	_ = g.Wait()
}
