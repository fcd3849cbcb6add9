package astiremux

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandler(t *testing.T) {
	h := NewEventHandler()
	target := &struct{}{}
	var calls []string
	h.AddForAll(func(e Event) bool {
		calls = append(calls, "all:"+string(e.Name))
		return false
	})
	h.AddForEventName(EventNameStats, func(e Event) bool {
		calls = append(calls, "name:"+string(e.Name))
		return true
	})
	h.AddForTarget(target, func(e Event) bool {
		calls = append(calls, "target:"+string(e.Name))
		return false
	})
	h.Add(target, EventNameError, func(e Event) bool {
		calls = append(calls, "target-name:"+string(e.Name))
		return false
	})
	h.Emit(Event{Name: EventNameStats})
	h.Emit(Event{Name: EventNameStats})
	h.Emit(EventError(target, errors.New("test")))
	assert.Equal(t, []string{
		"all:astiremux.stats",
		"name:astiremux.stats",
		"all:astiremux.stats",
		"all:astiremux.error",
		"target:astiremux.error",
		"target-name:astiremux.error",
	}, calls)

	// Nil handler
	var nh *EventHandler
	nh.Emit(Event{Name: EventNameStats})
}

func TestEventHandlerLog(t *testing.T) {
	rt := newRemuxerTest(t, nil)
	defer rt.close()
	r, err := NewRemuxer(RemuxerOptions{Sink: rt.snk, Source: rt.src})
	require.NoError(t, err)

	ml := newMockedStdLogger()
	h := NewEventHandler()
	l := h.Log(ml).Start(context.Background())
	h.Emit(Event{Name: EventNameRemuxerStarted, Target: r})
	h.Emit(Event{Name: EventNameDtsForced, Payload: EventDtsForced{InputDts: ts(5), OutputDts: ts(11)}, Target: r})
	h.Emit(EventError(r, errors.New("test")))
	h.Emit(EventError(nil, errors.New("test")))
	l.Close()
	assert.Equal(t, []string{
		"astiremux: remuxer rtmp://localhost/live => out.ts is started",
		"astiremux: dts 5 forced to 11",
		"test (rtmp://localhost/live => out.ts)",
		"test",
	}, ml.messages())
}
