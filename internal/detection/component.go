package detection

import (
	"github.com/samber/lo"

	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// DefaultMinArea is the smallest component, in pixels, that New's component
// detector reports.
const DefaultMinArea = 16

// Component is one 8-connected group of foreground cells.
type Component struct {
	// Bounds is the bounding box of the component's cells.
	Bounds Bounds `json:"bounds"`

	// Pixels is the number of cells in the component.
	Pixels int `json:"pixels"`

	// Seed is the first cell of the component in scan order.
	Seed Point `json:"seed"`

	// Fill is Pixels divided by the bounding box area (0.0 to 1.0).
	// Solid rectangles score 1.0.
	Fill float64 `json:"fill"`

	// TouchesBorder reports whether any cell lies on the matrix edge.
	TouchesBorder bool `json:"touches_border"`
}

// FindComponents groups the 1 cells of m into 8-connected components, in
// scan order of their first cell.
func FindComponents(m *BinaryMatrix) []Component {
	visited := make([]bool, m.Rows*m.Cols)
	components := make([]Component, 0)

	for y := 0; y < m.Rows; y++ {
		for x := 0; x < m.Cols; x++ {
			if m.At(y, x) == 1 && !visited[y*m.Cols+x] {
				components = append(components, floodFill(m, visited, x, y))
			}
		}
	}
	return components
}

// floodFill performs iterative flood-fill from a starting cell.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large components. Uses 8-connectivity (includes diagonal neighbors).
func floodFill(m *BinaryMatrix, visited []bool, startX, startY int) Component {
	comp := Component{
		Bounds: Bounds{X1: startX, Y1: startY, X2: startX + 1, Y2: startY + 1},
		Seed:   Point{X: startX, Y: startY},
	}
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Cols || p.Y < 0 || p.Y >= m.Rows {
			continue
		}
		if visited[p.Y*m.Cols+p.X] || m.At(p.Y, p.X) != 1 {
			continue
		}

		visited[p.Y*m.Cols+p.X] = true
		comp.Pixels++
		comp.Bounds.X1 = min(comp.Bounds.X1, p.X)
		comp.Bounds.Y1 = min(comp.Bounds.Y1, p.Y)
		comp.Bounds.X2 = max(comp.Bounds.X2, p.X+1)
		comp.Bounds.Y2 = max(comp.Bounds.Y2, p.Y+1)
		if p.X == 0 || p.Y == 0 || p.X == m.Cols-1 || p.Y == m.Rows-1 {
			comp.TouchesBorder = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	comp.Fill = float64(comp.Pixels) / float64(comp.Bounds.Area())
	return comp
}

// ComponentDetector reports the largest enclosed foreground component.
//
// Components touching the image edge are usually background and are skipped
// unless IncludeBorder is set. Ties go to the component found first in scan
// order.
type ComponentDetector struct {
	// Predicate selects foreground pixels. Nil means IsWhite.
	Predicate Predicate

	// MinArea is the smallest component, in pixels, worth reporting.
	MinArea int

	// IncludeBorder keeps components that touch the image edge.
	IncludeBorder bool
}

// Detect implements RegionDetector.
func (d *ComponentDetector) Detect(b *imaging.Buffer) (*Region, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	candidates := lo.Filter(FindComponents(Binarize(b, d.Predicate)), func(c Component, _ int) bool {
		return c.Pixels >= d.MinArea && (d.IncludeBorder || !c.TouchesBorder)
	})
	if len(candidates) == 0 {
		return &Region{Method: MethodComponent}, nil
	}

	best := lo.MaxBy(candidates, func(a, b Component) bool {
		return a.Pixels > b.Pixels
	})
	seed := best.Seed
	return &Region{
		Found:  true,
		Bounds: best.Bounds,
		Area:   float64(best.Pixels),
		Point:  &seed,
		Method: MethodComponent,
	}, nil
}
