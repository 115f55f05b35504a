package color

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n, err := Normalize(RawSample{Red: 200, Green: 50, Blue: 40, Clear: 500})
	require.NoError(t, err)

	// blue' = 60, dominant = 200
	assert.InDelta(t, 1.0, n[0], 1e-6)
	assert.InDelta(t, 0.0625, n[1], 1e-6)
	assert.InDelta(t, 0.09, n[2], 1e-6)
}

func TestNormalize_BlueCorrectionDominates(t *testing.T) {
	n, err := Normalize(RawSample{Red: 100, Green: 100, Blue: 100, Clear: 500})
	require.NoError(t, err)

	// blue' = 150 is the dominant channel
	assert.InDelta(t, 4.0/9.0, n[0], 1e-6)
	assert.InDelta(t, 4.0/9.0, n[1], 1e-6)
	assert.InDelta(t, 1.0, n[2], 1e-6)
}

func TestNormalize_NoSignal(t *testing.T) {
	n, err := Normalize(RawSample{Clear: 500})
	assert.True(t, errors.Is(err, ErrNoSignal))
	assert.Equal(t, Normalized{}, n)
}

func TestNormalize_NoOverflow(t *testing.T) {
	n, err := Normalize(RawSample{Red: 65535, Green: 0, Blue: 65535, Clear: 65535})
	require.NoError(t, err)

	// blue' = 98302 must not wrap around 16 bits
	assert.InDelta(t, 1.0, n[2], 1e-6)
	assert.Less(t, n[0], float32(1.0))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		sample RawSample
		want   Color
	}{
		{"too dark", RawSample{Red: 300, Green: 300, Blue: 300, Clear: 100}, Black},
		{"clear just below threshold", RawSample{Red: 300, Green: 10, Blue: 200, Clear: 109}, Black},
		{"blue", RawSample{Red: 10, Green: 10, Blue: 200, Clear: 500}, Blue},
		{"magenta", RawSample{Red: 300, Green: 10, Blue: 200, Clear: 500}, Magenta},
		{"magenta at clear threshold", RawSample{Red: 300, Green: 10, Blue: 200, Clear: 110}, Magenta},
		{"green", RawSample{Red: 10, Green: 300, Blue: 10, Clear: 500}, Green},
		{"cyan", RawSample{Red: 10, Green: 300, Blue: 200, Clear: 500}, Cyan},
		{"yellow", RawSample{Red: 300, Green: 300, Blue: 10, Clear: 500}, Yellow},
		{"white", RawSample{Red: 300, Green: 300, Blue: 200, Clear: 900}, White},
		{"bluish magenta filament", RawSample{Red: 190, Green: 190, Blue: 200, Clear: 500}, Magenta},
		{"orange", RawSample{Red: 300, Green: 212, Blue: 134, Clear: 500}, Orange},
		{"red", RawSample{Red: 300, Green: 212, Blue: 157, Clear: 500}, Red},
		// Matches the disabled Red{high,low,low} pattern.
		{"plain red is not classified", RawSample{Red: 200, Green: 50, Blue: 40, Clear: 500}, Unknown},
		{"no signal", RawSample{Red: 0, Green: 0, Blue: 0, Clear: 500}, Unknown},
		{"grey", RawSample{Red: 200, Green: 200, Blue: 80, Clear: 500}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sample))
		})
	}
}

func TestClassify_Total(t *testing.T) {
	values := []uint16{0, 1, 7, 50, 109, 110, 111, 300, 1000, 40000, 65535}
	valid := make(map[Color]bool)
	for _, c := range All() {
		valid[c] = true
	}

	for _, r := range values {
		for _, g := range values {
			for _, b := range values {
				for _, c := range values {
					s := RawSample{Red: r, Green: g, Blue: b, Clear: c}
					got := Classify(s)
					require.True(t, valid[got], "sample %+v gave %v", s, got)
					if c < ClearThreshold {
						require.Equal(t, Black, got, "sample %+v", s)
					}
				}
			}
		}
	}
}

func TestNormalize_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 10000; i++ {
		s := RawSample{
			Red:   uint16(rng.Intn(65536)),
			Green: uint16(rng.Intn(65536)),
			Blue:  uint16(rng.Intn(65536)),
			Clear: uint16(rng.Intn(65536)),
		}
		n, err := Normalize(s)
		if s.Red == 0 && s.Green == 0 && s.Blue == 0 {
			assert.ErrorIs(t, err, ErrNoSignal)
			continue
		}
		require.NoError(t, err)
		for ch, v := range n {
			require.GreaterOrEqual(t, v, float32(0), "sample %+v channel %d", s, ch)
			require.LessOrEqual(t, v, float32(1), "sample %+v channel %d", s, ch)
		}
	}
}
