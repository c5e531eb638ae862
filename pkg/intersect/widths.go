package intersect

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"
)

// MaxWidthEnv caps the detected packet widths, e.g. CURVES_MAX_WIDTH=4
const MaxWidthEnv = "CURVES_MAX_WIDTH"

// Widths is the set of packet widths with populated entry points
type Widths uint8

const (
	Width4 Widths = 1 << iota
	Width8
	Width16

	AllWidths = Width4 | Width8 | Width16
)

// DetectWidths enables 4-wide packets everywhere, 8-wide with AVX and
// 16-wide with AVX-512F, then applies the MaxWidthEnv cap
func DetectWidths() Widths {
	w := Width4
	if cpu.X86.HasAVX {
		w |= Width8
	}
	if cpu.X86.HasAVX512F {
		w |= Width16
	}

	if env := os.Getenv(MaxWidthEnv); env != "" {
		if limit, err := strconv.Atoi(env); err == nil {
			w = w.Cap(limit)
		}
	}
	return w
}

// Cap drops every width wider than limit. Width 4 is always kept.
func (w Widths) Cap(limit int) Widths {
	if limit < 16 {
		w &^= Width16
	}
	if limit < 8 {
		w &^= Width8
	}
	return w | Width4
}

// Has reports whether packets of k lanes are enabled
func (w Widths) Has(k int) bool {
	switch k {
	case 1:
		return true
	case 4:
		return w&Width4 != 0
	case 8:
		return w&Width8 != 0
	case 16:
		return w&Width16 != 0
	}
	return false
}

// Max returns the widest enabled packet
func (w Widths) Max() int {
	switch {
	case w&Width16 != 0:
		return 16
	case w&Width8 != 0:
		return 8
	default:
		return 4
	}
}

func (w Widths) String() string {
	parts := []string{"1"}
	for _, k := range []int{4, 8, 16} {
		if w.Has(k) {
			parts = append(parts, strconv.Itoa(k))
		}
	}
	return strings.Join(parts, ",")
}

// Config controls how the dispatch table is populated
type Config struct {
	Widths        Widths
	CurveSegments int // Tessellation of cubic curves per segment
}

// DefaultConfig returns the detected widths and the default tessellation
func DefaultConfig() Config {
	return Config{
		Widths:        DetectWidths(),
		CurveSegments: 16,
	}
}
