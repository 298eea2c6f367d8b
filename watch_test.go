package r

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRegistryWatchAndSignalSync(t *testing.T) {
	w := newWatchRegistry()
	var got []string
	w.Watch("topic", func(name string, data any) {
		got = append(got, data.(string))
	}, "sub1")

	w.SignalSync("topic", "payload")
	require.Len(t, got, 1)
	assert.Equal(t, "payload", got[0])
}

func TestWatchRegistrySignalSyncMultipleSubscribers(t *testing.T) {
	w := newWatchRegistry()
	var got []string
	w.Watch("topic", func(name string, data any) { got = append(got, "a:"+data.(string)) }, "x")
	w.Watch("topic", func(name string, data any) { got = append(got, "b:"+data.(string)) }, "y")

	w.SignalSync("topic", "ping")
	assert.Equal(t, []string{"a:ping", "b:ping"}, got)
}

func TestWatchRegistryWatchOffRemovesExactTriple(t *testing.T) {
	w := newWatchRegistry()
	var calls int
	proc := func(name string, data any) { calls++ }
	w.Watch("topic", proc, "data1")

	w.WatchOff("topic", proc, "data1")
	w.SignalSync("topic", nil)
	assert.Equal(t, 0, calls)
}

func TestWatchRegistryWatchOffRequiresMatchingData(t *testing.T) {
	w := newWatchRegistry()
	var calls int
	proc := func(name string, data any) { calls++ }
	w.Watch("topic", proc, "data1")

	w.WatchOff("topic", proc, "different-data")
	w.SignalSync("topic", nil)
	assert.Equal(t, 1, calls, "WatchOff must not remove a subscription with a different data value")
}

func TestWatchRegistrySignalDoesNotSeeAdditionsDuringDelivery(t *testing.T) {
	w := newWatchRegistry()
	q := newEventQueue()
	f := &Fiber{main: true}

	var delivered []string
	w.Watch("topic", func(name string, data any) {
		delivered = append(delivered, data.(string))
		w.Watch("topic", func(string, any) { delivered = append(delivered, "late") }, nil)
	}, "first")

	w.Signal("topic", q, f, "first")

	var due []dueEvent
	due, _ = q.RunEvents(due)
	require.Len(t, due, 1)
	due[0].proc(due[0].arg)

	assert.Equal(t, []string{"first"}, delivered)
	assert.Len(t, w.subs["topic"], 2, "the late subscriber should be registered for next time, not this delivery")
}
