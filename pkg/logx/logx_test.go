package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForIndexRotates(t *testing.T) {
	first := ColorForIndex(0)
	assert.Equal(t, first, ColorForIndex(colorCount), "palette should wrap around")
	assert.NotEqual(t, first, ColorForIndex(1))
}

func TestDebugDomains(t *testing.T) {
	SetDebug(false)
	assert.False(t, debugEnabled("alice"))

	SetDebug(true)
	defer SetDebug(false)

	// nil domain map means all domains enabled.
	debugMutex.Lock()
	debugConfig.Domains = nil
	debugMutex.Unlock()
	assert.True(t, debugEnabled("alice"))

	debugMutex.Lock()
	debugConfig.Domains = map[string]bool{"bob": true}
	debugMutex.Unlock()
	assert.False(t, debugEnabled("alice"))
	assert.True(t, debugEnabled("bob"))

	debugMutex.Lock()
	debugConfig.Domains = nil
	debugMutex.Unlock()
}

func TestLoggerDoesNotPanic(t *testing.T) {
	l := NewColoredLogger("test-agent", ColorForIndex(2))
	l.Info("hello %s", "world")
	l.Warn("warn")
	l.Error("error %d", 42)
	l.Debug("debug line")
}
