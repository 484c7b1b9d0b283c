package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualFiresInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(2*time.Second, func() { order = append(order, "b") })
	m.After(time.Second, func() { order = append(order, "a") })
	m.After(2*time.Second, func() { order = append(order, "c") })

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 2, m.Pending())

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 2*time.Second, m.Now())
}

func TestManualRunsNestedCallbacksWhenDue(t *testing.T) {
	m := NewManual()
	var fired []time.Duration
	m.After(time.Second, func() {
		fired = append(fired, m.Now())
		m.After(time.Second, func() {
			fired = append(fired, m.Now())
		})
	})

	m.Advance(3 * time.Second)
	require.Len(t, fired, 2)
	assert.Equal(t, time.Second, fired[0])
	assert.Equal(t, 2*time.Second, fired[1])
}

func TestManualNextDueAndRunAll(t *testing.T) {
	m := NewManual()
	_, ok := m.NextDue()
	assert.False(t, ok)

	count := 0
	m.After(4*time.Second, func() { count++ })
	due, ok := m.NextDue()
	require.True(t, ok)
	assert.Equal(t, 4*time.Second, due)

	elapsed := m.RunAll(10)
	assert.Equal(t, 4*time.Second, elapsed)
	assert.Equal(t, 1, count)
}
