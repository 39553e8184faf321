package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapWheelEmpty(t *testing.T) {
	w := NewHeapWheel(time.Unix(0, 0), time.Millisecond)
	assert.True(t, w.IsEmpty())
	_, ok := w.NextAlarmFiresAt()
	assert.False(t, ok)
}

func TestHeapWheelOrdersByFireTime(t *testing.T) {
	t0 := time.Unix(0, 0)
	w := NewHeapWheel(t0, time.Millisecond)

	var order []string
	w.ScheduleAt(t0.Add(3*time.Second), func() { order = append(order, "third") })
	w.ScheduleAt(t0.Add(1*time.Second), func() { order = append(order, "first") })
	w.ScheduleAt(t0.Add(2*time.Second), func() { order = append(order, "second") })

	require.False(t, w.IsEmpty())
	next, ok := w.NextAlarmFiresAt()
	require.True(t, ok)
	assert.Equal(t, t0.Add(1*time.Second), next)

	due := w.Advance(5 * time.Second)
	require.Len(t, due, 3)
	for _, fn := range due {
		fn()
	}
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.True(t, w.IsEmpty())
}

func TestHeapWheelCancel(t *testing.T) {
	t0 := time.Unix(0, 0)
	w := NewHeapWheel(t0, time.Millisecond)

	fired := false
	cancel := w.ScheduleAt(t0.Add(time.Second), func() { fired = true })
	cancel()

	due := w.Advance(2 * time.Second)
	assert.Empty(t, due)
	assert.False(t, fired)
}

func TestHeapWheelFirePastAlarmsDoesNotAdvance(t *testing.T) {
	t0 := time.Unix(0, 0)
	w := NewHeapWheel(t0, time.Millisecond)
	w.ScheduleAt(t0.Add(-time.Second), func() {}) // already due

	due := w.FirePastAlarms()
	assert.Len(t, due, 1)
	assert.Equal(t, t0, w.Now())
}

func TestHeapWheelSynchronousWallClockHook(t *testing.T) {
	w := NewHeapWheel(time.Unix(0, 0), time.Millisecond)

	var advanced time.Duration
	w.SetSynchronousWallClockAdvance(func(d time.Duration) { advanced += d })

	w.Advance(250 * time.Millisecond)
	w.Advance(250 * time.Millisecond)

	assert.Equal(t, 500*time.Millisecond, advanced)
}
