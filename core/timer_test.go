package core

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayerCoalescesTriggers(t *testing.T) {
	d := newDelayer(30 * time.Millisecond)

	var first, second atomic.Int32
	d.Trigger(func() { first.Add(1) })
	d.Trigger(func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, first.Load(), "a replaced task never runs")
	assert.Equal(t, int32(1), second.Load())
}

func TestDelayerCancel(t *testing.T) {
	d := newDelayer(30 * time.Millisecond)

	var ran atomic.Int32
	d.Trigger(func() { ran.Add(1) })
	d.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, ran.Load())
}

func TestReentrancyGuard(t *testing.T) {
	var g reentrancyGuard

	assert.False(t, g.isHeld())

	func() {
		defer g.acquire()()
		assert.True(t, g.isHeld())
	}()

	assert.False(t, g.isHeld(), "release clears the flag on exit")
}
