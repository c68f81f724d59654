package detection

import (
	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// Neighbour offsets in search order: up, right, down, left.
var (
	dirRow = [4]int{-1, 0, 1, 0}
	dirCol = [4]int{0, 1, 0, -1}
)

// CycleResult describes the outcome of FindCycle.
type CycleResult struct {
	// Found reports whether a closed loop was detected.
	Found bool `json:"found"`

	// Start is the scan-order cell whose search found the loop.
	Start Point `json:"start"`

	// Point is the cell being expanded when the loop closed.
	Point Point `json:"point"`

	// Revisited is the already-visited cell the search stepped back into.
	Revisited Point `json:"revisited"`

	// Bounds encloses the cells on the loop.
	Bounds Bounds `json:"bounds"`

	// Length is the number of cells on the loop.
	Length int `json:"length"`

	// Visited is the number of cells marked visited when the search stopped.
	Visited int `json:"visited"`
}

// frame is one explicit-stack entry of the depth-first search.
type frame struct {
	row, col int
	parent   int // flat index of the parent cell, -1 for a root
	next     int // next direction to try
}

// FindCycle reports whether m contains a closed loop of 4-connected cells
// sharing the same value.
//
// Cells are scanned in row-major order; each unvisited cell starts a
// depth-first search over equal-valued neighbours, skipping the cell it was
// reached from. Stepping into any other visited cell closes a loop and the
// search stops at that first loop. Both 0 and 1 cells can form loops.
//
// The search keeps its own stack, so memory is bounded by the grid size
// rather than the goroutine stack. An empty matrix has no cycle.
func FindCycle(m *BinaryMatrix) CycleResult {
	return findCycle(m, false)
}

// FindForegroundCycle is FindCycle restricted to loops of 1 cells.
func FindForegroundCycle(m *BinaryMatrix) CycleResult {
	return findCycle(m, true)
}

func findCycle(m *BinaryMatrix, foregroundOnly bool) CycleResult {
	rows, cols := m.Rows, m.Cols
	visited := make([]bool, rows*cols)
	count := 0
	var stack []frame

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if visited[r*cols+c] || (foregroundOnly && m.At(r, c) == 0) {
				continue
			}

			visited[r*cols+c] = true
			count++
			stack = append(stack[:0], frame{row: r, col: c, parent: -1})

			for len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.next == len(dirRow) {
					stack = stack[:len(stack)-1]
					continue
				}

				k := top.next
				top.next++

				nr, nc := top.row+dirRow[k], top.col+dirCol[k]
				if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
					continue
				}
				idx := nr*cols + nc
				if idx == top.parent || m.At(nr, nc) != m.At(top.row, top.col) {
					continue
				}

				if visited[idx] {
					res := loopResult(stack, nr, nc)
					res.Start = Point{X: c, Y: r}
					res.Visited = count
					return res
				}

				visited[idx] = true
				count++
				stack = append(stack, frame{row: nr, col: nc, parent: top.row*cols + top.col})
			}
		}
	}

	return CycleResult{Visited: count}
}

// loopResult extracts the loop closed by stepping from the top of stack into
// (row, col). In an undirected depth-first search that cell is always an
// ancestor still on the stack.
func loopResult(stack []frame, row, col int) CycleResult {
	top := stack[len(stack)-1]

	from := 0
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].row == row && stack[i].col == col {
			from = i
			break
		}
	}

	loop := stack[from:]
	b := Bounds{X1: loop[0].col, Y1: loop[0].row, X2: loop[0].col + 1, Y2: loop[0].row + 1}
	for _, f := range loop[1:] {
		b.X1 = min(b.X1, f.col)
		b.Y1 = min(b.Y1, f.row)
		b.X2 = max(b.X2, f.col+1)
		b.Y2 = max(b.Y2, f.row+1)
	}

	return CycleResult{
		Found:     true,
		Point:     Point{X: top.col, Y: top.row},
		Revisited: Point{X: col, Y: row},
		Bounds:    b,
		Length:    len(loop),
	}
}

// CycleDetector binarizes a buffer and reports the first closed loop.
type CycleDetector struct {
	// Predicate selects foreground pixels. Nil means IsWhite.
	Predicate Predicate

	// ForegroundOnly ignores loops of background cells, which otherwise
	// close around any 2×2 patch of uniform background.
	ForegroundOnly bool
}

// Detect implements RegionDetector.
func (d *CycleDetector) Detect(b *imaging.Buffer) (*Region, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	search := FindCycle
	if d.ForegroundOnly {
		search = FindForegroundCycle
	}
	res := search(Binarize(b, d.Predicate))
	if !res.Found {
		return &Region{Method: MethodCycle}, nil
	}

	p := res.Point
	return &Region{
		Found:  true,
		Bounds: res.Bounds,
		Area:   float64(res.Length),
		Point:  &p,
		Method: MethodCycle,
	}, nil
}
