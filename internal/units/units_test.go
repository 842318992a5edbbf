package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeedConversionsRoundTrip(t *testing.T) {
	assert.InDelta(t, 90.0, MPSToKPH(25), 1e-9)
	assert.InDelta(t, 25.0, KPHToMPS(90), 1e-9)
	assert.InDelta(t, 13.5, KPHToMPS(MPSToKPH(13.5)), 1e-12)
}
