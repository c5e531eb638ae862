package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
)

// Geometry is a collection of primitives sharing one representation
type Geometry interface {
	Type() Type
	Mask() uint32
	Filter() core.FilterFunc
	NumPrimitives() int
	NumTimeSteps() int
	// TimeSegment maps a ray time to the bracketing time step and the
	// fraction between it and the next. ok is false outside the time range.
	TimeSegment(time float64) (itime int, ftime float64, ok bool)
	// Bounds covers the primitive over all time steps
	Bounds(primID int) core.AABB
	Validate() error
}

// base holds the state every geometry shares
type base struct {
	baseType  Type
	mask      uint32
	filter    core.FilterFunc
	timeSteps int
	timeStart float64
	timeEnd   float64
}

func newBase(t Type, timeSteps int) base {
	return base{
		baseType:  t.Base(),
		mask:      ^uint32(0),
		timeSteps: timeSteps,
		timeStart: 0,
		timeEnd:   1,
	}
}

// Type returns the tag, with MotionBlur set when there is more than one time step
func (b *base) Type() Type {
	if b.timeSteps > 1 {
		return b.baseType | MotionBlur
	}
	return b.baseType
}

// Mask returns the visibility mask
func (b *base) Mask() uint32 {
	return b.mask
}

// SetMask sets the visibility mask tested against ray masks
func (b *base) SetMask(mask uint32) {
	b.mask = mask
}

// Filter returns the geometry's hit filter, or nil
func (b *base) Filter() core.FilterFunc {
	return b.filter
}

// SetFilter installs a hit filter consulted before every commit
func (b *base) SetFilter(filter core.FilterFunc) {
	b.filter = filter
}

// NumTimeSteps returns the number of motion blur time steps
func (b *base) NumTimeSteps() int {
	return b.timeSteps
}

// TimeRange returns the interval the time steps span
func (b *base) TimeRange() (float64, float64) {
	return b.timeStart, b.timeEnd
}

// SetTimeRange sets the interval the time steps span
func (b *base) SetTimeRange(start, end float64) error {
	if !(start <= end) {
		return fmt.Errorf("invalid time range [%g, %g]", start, end)
	}
	b.timeStart = start
	b.timeEnd = end
	return nil
}

func (b *base) TimeSegment(time float64) (int, float64, bool) {
	if !(time >= b.timeStart && time <= b.timeEnd) {
		return 0, 0, false
	}
	if b.timeSteps < 2 || b.timeEnd == b.timeStart {
		return 0, 0, true
	}

	ft := (time - b.timeStart) / (b.timeEnd - b.timeStart) * float64(b.timeSteps-1)
	itime := int(math.Floor(ft))
	itime = max(0, min(itime, b.timeSteps-2))
	return itime, ft - float64(itime), true
}

// checkTimeSteps verifies every time step buffer has the expected length
func checkTimeSteps[T any](name string, steps [][]T, timeSteps, length int) error {
	if len(steps) != timeSteps {
		return fmt.Errorf("%s: expected %d time steps, got %d", name, timeSteps, len(steps))
	}
	for i, step := range steps {
		if len(step) != length {
			return fmt.Errorf("%s: time step %d has %d entries, expected %d", name, i, len(step), length)
		}
	}
	return nil
}
