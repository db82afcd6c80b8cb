package city

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/i474232898/city-area/internal/geo"
)

const (
	// Side length, in degrees, of the rectangle each city occupies in the tree.
	pointTolerance = 1e-9

	// Distances are rounded to 0.01 km before comparing against the radius,
	// so the search box must be slightly larger than the radius itself.
	boxPaddingKm = 0.01

	treeMinChildren = 25
	treeMaxChildren = 50
)

var (
	ErrEmptyID     = errors.New("city id is empty")
	ErrDuplicateID = errors.New("duplicate city id")
)

// Index is the read-only set of cities. It is built once and never mutated,
// so any number of goroutines may read it without locking.
type Index struct {
	cities []City
	byID   map[string]int
	tree   *rtreego.Rtree
}

// cityItem places a city into the R-tree. pos is its load position.
type cityItem struct {
	pos  int
	rect rtreego.Rect
}

func (i *cityItem) Bounds() rtreego.Rect {
	return i.rect
}

// NewIndex builds an index preserving the order of cities.
func NewIndex(cities []City) (*Index, error) {
	idx := &Index{
		cities: make([]City, len(cities)),
		byID:   make(map[string]int, len(cities)),
		tree:   rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
	}
	copy(idx.cities, cities)

	for pos, c := range idx.cities {
		if c.ID == "" {
			return nil, fmt.Errorf("city at position %d: %w", pos, ErrEmptyID)
		}
		if _, exists := idx.byID[c.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		idx.byID[c.ID] = pos

		rect, err := rtreego.NewRect(
			rtreego.Point{c.Longitude, c.Latitude},
			[]float64{pointTolerance, pointTolerance},
		)
		if err != nil {
			return nil, fmt.Errorf("index city %s: %w", c.ID, err)
		}
		idx.tree.Insert(&cityItem{pos: pos, rect: rect})
	}

	return idx, nil
}

// Len returns the number of cities.
func (x *Index) Len() int {
	return len(x.cities)
}

// All returns every city in load order.
func (x *Index) All() []City {
	out := make([]City, len(x.cities))
	copy(out, x.cities)
	return out
}

// ByID looks a city up by its identifier.
func (x *Index) ByID(id string) (City, bool) {
	pos, ok := x.byID[id]
	if !ok {
		return City{}, false
	}
	return x.cities[pos], true
}

// Filter returns the cities tagged with tag whose active flag equals isActive.
// The result is empty, never nil, when nothing matches.
func (x *Index) Filter(tag string, isActive bool) []City {
	out := make([]City, 0)
	for _, c := range x.cities {
		if c.IsActive == isActive && c.HasTag(tag) {
			out = append(out, c)
		}
	}
	return out
}

// Within returns every city other than origin whose distance from origin is at
// most radiusKm, in load order.
func (x *Index) Within(origin City, radiusKm float64) []City {
	from := origin.Coordinate()
	out := make([]City, 0)

	for _, pos := range x.candidates(from, radiusKm) {
		c := x.cities[pos]
		if c.ID == origin.ID {
			continue
		}
		if geo.Distance(from, c.Coordinate()) <= radiusKm {
			out = append(out, c)
		}
	}

	return out
}

// candidates returns load positions worth an exact distance check, sorted.
// It falls back to every position when the search area cannot be expressed
// as a single rectangle.
func (x *Index) candidates(from geo.Coordinate, radiusKm float64) []int {
	box, ok := geo.BoundingBox(from, radiusKm+boxPaddingKm)
	if ok {
		rect, err := rtreego.NewRect(
			rtreego.Point{box.MinLon, box.MinLat},
			[]float64{
				max(box.MaxLon-box.MinLon, pointTolerance),
				max(box.MaxLat-box.MinLat, pointTolerance),
			},
		)
		if err == nil {
			hits := x.tree.SearchIntersect(rect)
			positions := make([]int, 0, len(hits))
			for _, h := range hits {
				positions = append(positions, h.(*cityItem).pos)
			}
			sort.Ints(positions)
			return positions
		}
	}

	positions := make([]int, len(x.cities))
	for i := range positions {
		positions[i] = i
	}
	return positions
}
