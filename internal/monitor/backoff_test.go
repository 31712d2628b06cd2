package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffUsesPlatformDuration(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBackoff(time.Minute, 15*time.Minute)
	wait, next := b.Next(120*time.Second, now)
	assert.Equal(t, 120*time.Second, wait)
	assert.Equal(t, time.Minute, next.Current)
	assert.Equal(t, now.Add(120*time.Second), next.ResetAt)
	assert.Equal(t, 120*time.Second, next.Remaining(now))
	assert.Zero(t, next.Remaining(now.Add(3*time.Minute)))
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBackoff(time.Minute, 5*time.Minute)
	var waits []time.Duration
	for i := 0; i < 4; i++ {
		var w time.Duration
		w, b = b.Next(0, now)
		waits = append(waits, w)
	}
	assert.Equal(t, []time.Duration{2 * time.Minute, 4 * time.Minute, 5 * time.Minute, 5 * time.Minute}, waits)
}

func TestBackoffRelaxHalvesWithFloor(t *testing.T) {
	b := Backoff{Min: time.Minute, Max: 15 * time.Minute, Current: 8 * time.Minute}
	b = b.Relaxed()
	assert.Equal(t, 4*time.Minute, b.Current)
	b = b.Relaxed().Relaxed().Relaxed()
	assert.Equal(t, time.Minute, b.Current)
}
