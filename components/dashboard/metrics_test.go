package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateGuardsZeroDenominator(t *testing.T) {
	assert.Equal(t, float64(0), Rate(5, 0))
	assert.Equal(t, float64(0), Rate(0, 0))
	assert.Equal(t, float64(40), Rate(400, 1000))
	assert.Equal(t, "0", FormatRate(0, 0))
	assert.Equal(t, "0", FormatRate(3, 0))
	assert.Equal(t, "40.0", FormatRate(400, 1000))
	assert.Equal(t, "33.3", FormatRate(1, 3))
}

func TestBarWidthFloor(t *testing.T) {
	assert.Equal(t, float64(8), BarWidth(1, 1000, 8))
	assert.Equal(t, float64(50), BarWidth(500, 1000, 8))
	assert.Equal(t, float64(12), BarWidth(5, 0, 12))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1.000", FormatCount(1000))
	assert.Equal(t, "1.234.567", FormatCount(1234567))
	assert.Equal(t, "-1.500", FormatCount(-1500))

	assert.Equal(t, "10-05", TrendLabel("2026-10-05"))
	assert.Equal(t, "W41", TrendLabel("W41"))

	assert.Equal(t, "05/10/2026", FormatDate("2026-10-05"))
	assert.Equal(t, "05/10/2026", FormatDate("2026-10-05 08:30:00"))
	assert.Equal(t, Placeholder, FormatDate(" "))
	assert.Equal(t, "ayer", FormatDate("ayer"))
}
