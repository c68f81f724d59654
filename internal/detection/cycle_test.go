package detection

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindCycle(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want bool
	}{
		{"2x2 ones", []string{"11", "11"}, true},
		{"2x2 zeros", []string{"00", "00"}, true},
		{"5x5 all white", []string{"11111", "11111", "11111", "11111", "11111"}, true},
		{"ring", []string{"111", "101", "111"}, true},
		{"single row", []string{"1011001"}, false},
		{"single column", []string{"1", "1", "0", "1", "1"}, false},
		{"checkerboard", []string{"0101", "1010", "0101"}, false},
		{"tree", []string{"100", "111", "100"}, false},
		{"single cell", []string{"1"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindCycle(mustMatrix(t, tt.rows...))
			if got.Found != tt.want {
				t.Errorf("Found: got %v, want %v", got.Found, tt.want)
			}
		})
	}
}

func TestFindCycle_MinimalLoop(t *testing.T) {
	got := FindCycle(mustMatrix(t, "11", "11"))

	want := CycleResult{
		Found:     true,
		Start:     Point{X: 0, Y: 0},
		Point:     Point{X: 0, Y: 1},
		Revisited: Point{X: 0, Y: 0},
		Bounds:    Bounds{X1: 0, Y1: 0, X2: 2, Y2: 2},
		Length:    4,
		Visited:   4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCycle_StopsAtFirstScanCell(t *testing.T) {
	rows := make([]string, 5)
	for i := range rows {
		rows[i] = "11111"
	}

	got := FindCycle(mustMatrix(t, rows...))

	// The search from (0,0) runs along the top row, down the right edge,
	// left once along the bottom, then up column 3 into (3,0).
	want := CycleResult{
		Found:     true,
		Start:     Point{X: 0, Y: 0},
		Point:     Point{X: 3, Y: 1},
		Revisited: Point{X: 3, Y: 0},
		Bounds:    Bounds{X1: 3, Y1: 0, X2: 5, Y2: 5},
		Length:    10,
		Visited:   13,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCycle_EmptyGrid(t *testing.T) {
	got := FindCycle(NewBinaryMatrix(0, 0))
	if got.Found || got.Visited != 0 {
		t.Errorf("empty grid: got %+v", got)
	}
}

func TestFindCycle_TreeVisitsEverything(t *testing.T) {
	got := FindCycle(mustMatrix(t, "100", "111", "100"))
	if got.Visited != 9 {
		t.Errorf("Visited: got %d, want 9", got.Visited)
	}
}

func TestFindCycle_RingBounds(t *testing.T) {
	got := FindCycle(mustMatrix(t, "111", "101", "111"))

	if got.Length != 8 {
		t.Errorf("Length: got %d, want 8", got.Length)
	}
	if got.Bounds != (Bounds{X1: 0, Y1: 0, X2: 3, Y2: 3}) {
		t.Errorf("Bounds: got %+v", got.Bounds)
	}
}

func TestFindCycle_DeepPath(t *testing.T) {
	// one long row forces a search depth equal to its length
	m := NewBinaryMatrix(1, 200000)
	for c := 0; c < m.Cols; c++ {
		m.Set(0, c, 1)
	}

	got := FindCycle(m)
	if got.Found {
		t.Error("a single row cannot contain a cycle")
	}
	if got.Visited != m.Cols {
		t.Errorf("Visited: got %d, want %d", got.Visited, m.Cols)
	}
}

func TestFindCycle_DeepSerpentine(t *testing.T) {
	// a snake path of 1s separated by 0 rows, closed into a loop at the end
	const width = 300
	rows := make([]string, 0, 99)
	for i := 0; i < 49; i++ {
		rows = append(rows, strings.Repeat("1", width))
		gap := []byte(strings.Repeat("0", width))
		if i%2 == 0 {
			gap[width-1] = '1'
		} else {
			gap[0] = '1'
		}
		rows = append(rows, string(gap))
	}
	rows = append(rows, strings.Repeat("1", width))

	got := FindForegroundCycle(mustMatrix(t, rows...))
	if got.Found {
		t.Errorf("serpentine path has no cycle, got %+v", got)
	}
}

func TestFindForegroundCycle(t *testing.T) {
	m := mustMatrix(t,
		"0000",
		"0110",
		"0110",
		"0000",
	)

	all := FindCycle(m)
	if !all.Found || all.Bounds != (Bounds{X1: 0, Y1: 0, X2: 4, Y2: 4}) {
		t.Errorf("FindCycle should close the background ring first, got %+v", all)
	}

	fg := FindForegroundCycle(m)
	if !fg.Found {
		t.Fatal("FindForegroundCycle: expected a cycle")
	}
	if fg.Bounds != (Bounds{X1: 1, Y1: 1, X2: 3, Y2: 3}) {
		t.Errorf("Bounds: got %+v, want (1,1)-(3,3)", fg.Bounds)
	}
	if fg.Start != (Point{X: 1, Y: 1}) {
		t.Errorf("Start: got %+v, want (1,1)", fg.Start)
	}

	if got := FindForegroundCycle(mustMatrix(t, "00", "00")); got.Found {
		t.Error("background-only grid should have no foreground cycle")
	}
}

func TestCycleDetector_Frame(t *testing.T) {
	buf := createFrameBuffer(t, 12, 10, 2, 2, 8, 6)

	d, err := New(MethodCycle, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	region, err := d.Detect(buf)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if !region.Found {
		t.Fatal("expected the frame to be detected")
	}
	if region.Bounds != (Bounds{X1: 2, Y1: 2, X2: 8, Y2: 6}) {
		t.Errorf("Bounds: got %+v, want (2,2)-(8,6)", region.Bounds)
	}
	if region.Area != 16 {
		t.Errorf("Area: got %v, want 16 loop cells", region.Area)
	}
	if region.Point == nil || *region.Point != (Point{X: 2, Y: 3}) {
		t.Errorf("Point: got %+v, want (2,3)", region.Point)
	}
	if region.Method != MethodCycle {
		t.Errorf("Method: got %s", region.Method)
	}
}

func TestCycleDetector_OpenEdge(t *testing.T) {
	buf := createTestBuffer(t, 10, 10, 0, 0, 0)
	fillRect(buf, 0, 4, 10, 5, 255, 255, 255) // a single white line

	region, err := (&CycleDetector{ForegroundOnly: true}).Detect(buf)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if region.Found {
		t.Errorf("open line should not be a region, got %+v", region)
	}
}

func TestCycleDetector_AnyValue(t *testing.T) {
	// all black: only background loops exist
	buf := createTestBuffer(t, 4, 3, 0, 0, 0)

	d, _ := New(MethodCycle, Options{})
	region, err := d.Detect(buf)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if region.Found {
		t.Errorf("default detector should ignore background loops, got %+v", region)
	}

	d, _ = New(MethodCycle, Options{AnyValue: true})
	region, err = d.Detect(buf)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !region.Found {
		t.Fatal("AnyValue detector should report the background loop")
	}
	if region.Bounds != (Bounds{X1: 0, Y1: 0, X2: 2, Y2: 2}) {
		t.Errorf("Bounds: got %+v, want (0,0)-(2,2)", region.Bounds)
	}
}

func TestCycleDetector_NilBuffer(t *testing.T) {
	if _, err := (&CycleDetector{}).Detect(nil); err == nil {
		t.Error("Detect should fail for a nil buffer")
	}
}
