package scoring

import (
	"fmt"
	"math"
)

// Palette maps a result to a CSS color for its badge.
type Palette interface {
	Color(r Result) string
}

const neutralColor = "rgb(128, 128, 128)"

// BandPalette colors by label.
type BandPalette struct{}

func (BandPalette) Color(r Result) string {
	switch r.Label {
	case Low:
		return "rgb(0, 200, 0)"
	case Medium:
		return "rgb(255, 165, 0)"
	case High:
		return "rgb(255, 0, 0)"
	default:
		return neutralColor
	}
}

// GradientPalette interpolates linearly from green at Min to red at Max on
// the adjusted score, clamping outside the range.
type GradientPalette struct {
	Min, Max float64
}

func (g GradientPalette) Color(r Result) string {
	if !r.Adjusted.Valid || g.Max <= g.Min {
		return neutralColor
	}
	t := (r.Adjusted.Float - g.Min) / (g.Max - g.Min)
	t = math.Max(0, math.Min(1, t))
	red := int(math.Round(255 * t))
	green := int(math.Round(255 * (1 - t)))
	return fmt.Sprintf("rgb(%d, %d, 0)", red, green)
}

// NewPalette returns the palette for a presentation mode name.
func NewPalette(presentation string, min, max float64) (Palette, error) {
	switch presentation {
	case "", "bands":
		return BandPalette{}, nil
	case "gradient":
		if max <= min {
			return nil, fmt.Errorf("gradient range [%g, %g] is empty", min, max)
		}
		return GradientPalette{Min: min, Max: max}, nil
	}
	return nil, fmt.Errorf("unknown presentation %q", presentation)
}
