package color

import (
	"errors"

	"github.com/chewxy/math32"
)

const (
	// ClearThreshold is the minimum clear channel reading. Anything darker is
	// out of sensing range and reads as Black.
	ClearThreshold = 110

	channelLow  float32 = 0.3
	channelHigh float32 = 0.7

	// reverseGamma attenuates strong channels relative to weak ones.
	reverseGamma float32 = 2
)

// ErrNoSignal is returned by Normalize when the dominant channel is zero and
// the ratios are undefined.
var ErrNoSignal = errors.New("no signal on red, green or blue channel")

// RawSample is one reading of the four optical channels.
type RawSample struct {
	Red   uint16
	Green uint16
	Blue  uint16
	Clear uint16
}

// Normalized holds the red, green and corrected blue channels, each the
// squared ratio against the dominant channel, in [0, 1].
type Normalized [3]float32

// Normalize scales the sample against its dominant channel. Blue is boosted
// by 3/2 to make up for the sensor's lower blue sensitivity.
func Normalize(s RawSample) (Normalized, error) {
	red := uint32(s.Red)
	green := uint32(s.Green)
	blue := uint32(s.Blue) * 3 / 2

	dominant := max(red, green, blue)
	if dominant == 0 {
		return Normalized{}, ErrNoSignal
	}

	d := float32(dominant)
	return Normalized{
		math32.Pow(float32(red)/d, reverseGamma),
		math32.Pow(float32(green)/d, reverseGamma),
		math32.Pow(float32(blue)/d, reverseGamma),
	}, nil
}

type level struct {
	min, max float32
}

var (
	low  = level{min: math32.Inf(-1), max: channelLow}
	high = level{min: channelHigh, max: math32.Inf(1)}
)

func between(min, max float32) level {
	return level{min: min, max: max}
}

func (l level) match(v float32) bool {
	return v >= l.min && v <= l.max
}

type rule struct {
	color    Color
	channels [3]level
}

// Evaluated in order, first match wins. There is intentionally no
// Red{high, low, low} rule.
var rules = []rule{
	{Blue, [3]level{low, low, high}},
	{Magenta, [3]level{high, low, high}},
	{Green, [3]level{low, high, low}},
	{Cyan, [3]level{low, high, high}},
	{Yellow, [3]level{high, high, low}},
	{White, [3]level{high, high, high}},
	// Purple-ish filament that reads bluish magenta.
	{Magenta, [3]level{between(0.3, 0.5), between(0.3, 0.5), high}},
	{Orange, [3]level{high, between(0.45, 0.55), between(0.4, 0.5)}},
	{Red, [3]level{high, between(0.45, 0.55), between(0.55, 0.7)}},
}

func (r rule) match(n Normalized) bool {
	for i, l := range r.channels {
		if !l.match(n[i]) {
			return false
		}
	}
	return true
}

// Classify maps a raw sample to a color label. It never fails: samples that
// match no rule, or have no signal at all, are Unknown.
func Classify(s RawSample) Color {
	if s.Clear < ClearThreshold {
		return Black
	}

	n, err := Normalize(s)
	if err != nil {
		return Unknown
	}

	for _, r := range rules {
		if r.match(n) {
			return r.color
		}
	}
	return Unknown
}
