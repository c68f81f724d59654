package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRows_CoversEveryIndexOnce(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single", 1},
		{"below chunk", 7},
		{"uneven", 1001},
		{"large", 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.n)
			Rows(tt.n, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("index %d visited %d times, want 1", i, c)
				}
			}
		})
	}
}

func TestRows_RespectsLimit(t *testing.T) {
	SetWorkers(2)
	defer SetWorkers(MaxWorkers)

	var active, peak int32
	var mu sync.Mutex
	Rows(1000, func(start, end int) {
		n := atomic.AddInt32(&active, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		for i := start; i < end; i++ {
			_ = i * i
		}
		atomic.AddInt32(&active, -1)
	})

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak)
	}
}

func TestInvoke_Barrier(t *testing.T) {
	var done [4]bool
	Invoke(
		func() { done[0] = true },
		func() { done[1] = true },
		func() { done[2] = true },
		func() { done[3] = true },
	)
	for i, d := range done {
		if !d {
			t.Errorf("task %d did not complete before Invoke returned", i)
		}
	}
}

func TestSetWorkers_ResetsOnInvalid(t *testing.T) {
	SetWorkers(3)
	if Workers() != 3 {
		t.Fatalf("Workers() = %d, want 3", Workers())
	}
	SetWorkers(0)
	if Workers() != MaxWorkers {
		t.Errorf("Workers() = %d, want %d", Workers(), MaxWorkers)
	}
	SetWorkers(64)
	if Workers() != MaxWorkers {
		t.Errorf("Workers() = %d, want cap %d", Workers(), MaxWorkers)
	}
}
