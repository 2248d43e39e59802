package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per key")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiterEvictsIdleClients(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(5, 1)
	l.now = func() time.Time { return now }

	for i := 0; i < 10000; i++ {
		l.Allow(fmt.Sprintf("10.0.%d.%d:predict", i/256, i%256))
	}
	assert.Equal(t, 10000, l.Len())

	now = now.Add(24 * time.Hour)
	assert.True(t, l.Allow("192.168.1.1:predict"))
	assert.Equal(t, 1, l.Len())
}

func TestLimiterKeepsActiveClients(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(1, 0.0001)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	now = now.Add(time.Minute)
	assert.False(t, l.Allow("a"), "a drained bucket is not reset by a sweep while it is still refilling")
}
