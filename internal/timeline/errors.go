package timeline

import (
	"errors"
	"fmt"
)

// ErrDegenerateInterval indicates an interval reduced to zero or negative length.
// Callers in this module drop such intervals instead of failing.
var ErrDegenerateInterval = errors.New("degenerate interval")

// ErrPointRemoved indicates a time point lies inside a span that was cut.
var ErrPointRemoved = errors.New("point removed by cut")

// ErrInvalidKeepRanges indicates a keep-range list violates its ordering or bounds invariants.
var ErrInvalidKeepRanges = errors.New("invalid keep ranges")

// PointRemovedError reports a point that falls in a cut span together with
// the nearest retained boundary, so callers can snap to it.
type PointRemovedError struct {
	Point         float64 // Requested position in the original timeline.
	Nearest       float64 // Closest retained boundary in the original timeline.
	EditedNearest float64 // Position of Nearest in the edited timeline.
}

func (e *PointRemovedError) Error() string {
	return fmt.Sprintf("%.3fs was cut (nearest kept boundary %.3fs)", e.Point, e.Nearest)
}

// Unwrap lets errors.Is(err, ErrPointRemoved) match.
func (e *PointRemovedError) Unwrap() error {
	return ErrPointRemoved
}
