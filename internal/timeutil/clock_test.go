package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Unix(1700000000, 0)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())
	c.Advance(5 * time.Second)
	assert.Equal(t, start.Add(5*time.Second), c.Now())
	assert.Equal(t, 5*time.Second, c.Since(start))

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
