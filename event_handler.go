package astiremux

import (
	"fmt"
	"sort"
	"sync"

	"github.com/asticode/go-astikit"
)

// EventHandler dispatches events to callbacks registered for a target, an event name, both or none
type EventHandler struct {
	// Indexed by target then by event name then by listener idx
	cs  map[interface{}]map[EventName]map[int]EventCallback
	idx int
	m   *sync.Mutex
}

// EventCallback represents an event callback
type EventCallback func(e Event) (deleteListener bool)

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		cs: make(map[interface{}]map[EventName]map[int]EventCallback),
		m:  &sync.Mutex{},
	}
}

// Add adds a new callback for a specific target and event name
// A nil target or an empty event name matches all targets or all event names
func (h *EventHandler) Add(target interface{}, eventName EventName, c EventCallback) {
	h.m.Lock()
	defer h.m.Unlock()
	ns, ok := h.cs[target]
	if !ok {
		ns = make(map[EventName]map[int]EventCallback)
		h.cs[target] = ns
	}
	if _, ok = ns[eventName]; !ok {
		ns[eventName] = make(map[int]EventCallback)
	}
	h.idx++
	ns[eventName][h.idx] = c
}

// AddForEventName adds a new callback for a specific event name
func (h *EventHandler) AddForEventName(eventName EventName, c EventCallback) {
	h.Add(nil, eventName, c)
}

// AddForTarget adds a new callback for a specific target
func (h *EventHandler) AddForTarget(target interface{}, c EventCallback) {
	h.Add(target, "", c)
}

// AddForAll adds a new callback for all events
func (h *EventHandler) AddForAll(c EventCallback) {
	h.Add(nil, "", c)
}

type eventHandlerCallback struct {
	c         EventCallback
	eventName EventName
	idx       int
	target    interface{}
}

// callbacks returns matching callbacks in the order they were added
func (h *EventHandler) callbacks(target interface{}, eventName EventName) (cs []eventHandlerCallback) {
	// Get keys
	targets := []interface{}{nil}
	if target != nil {
		targets = append(targets, target)
	}
	eventNames := []EventName{""}
	if eventName != "" {
		eventNames = append(eventNames, eventName)
	}

	// Lock
	h.m.Lock()
	defer h.m.Unlock()

	// Loop through keys
	for _, t := range targets {
		for _, n := range eventNames {
			for idx, c := range h.cs[t][n] {
				cs = append(cs, eventHandlerCallback{
					c:         c,
					eventName: n,
					idx:       idx,
					target:    t,
				})
			}
		}
	}

	// Sort
	sort.Slice(cs, func(i, j int) bool { return cs[i].idx < cs[j].idx })
	return
}

func (h *EventHandler) del(c eventHandlerCallback) {
	h.m.Lock()
	defer h.m.Unlock()
	delete(h.cs[c.target][c.eventName], c.idx)
}

// Emit emits an event
// It can be called on a nil handler
func (h *EventHandler) Emit(e Event) {
	if h == nil {
		return
	}
	for _, c := range h.callbacks(e.Target, e.Name) {
		if c.c(e) {
			h.del(c)
		}
	}
}

// EventHandlerLogOption allows customizing the way events are logged
type EventHandlerLogOption func(*EventHandler, *EventLogger)

// Log logs events through an event logger that needs to be started
func (h *EventHandler) Log(i astikit.StdLogger, opts ...EventHandlerLogOption) (l *EventLogger) {
	// Create event logger
	l = newEventLogger(i)

	// Loop through options
	for _, opt := range opts {
		opt(h, l)
	}

	// Error
	h.AddForEventName(EventNameError, func(e Event) bool {
		var t string
		switch v := e.Target.(type) {
		case *Remuxer:
			t = v.src.URL() + " => " + v.snk.URL()
		case *Session:
			t = v.name()
		case nil:
		default:
			t = fmt.Sprintf("%p", e.Target)
		}
		if len(t) > 0 {
			t = " (" + t + ")"
		}
		l.Errorf("%s%s", e.Payload.(error), t)
		return false
	})

	// Dts forced
	h.AddForEventName(EventNameDtsForced, func(e Event) bool {
		p := e.Payload.(EventDtsForced)
		l.Warnk("astiremux: dts forced", fmt.Sprintf("astiremux: dts %s forced to %s", p.InputDts, p.OutputDts))
		return false
	})

	// Remuxer
	h.AddForEventName(EventNameRemuxerStarted, func(e Event) bool {
		r := e.Target.(*Remuxer)
		l.Infof("astiremux: remuxer %s => %s is started", r.src.URL(), r.snk.URL())
		return false
	})
	h.AddForEventName(EventNameRemuxerStopped, func(e Event) bool {
		r := e.Target.(*Remuxer)
		l.Infof("astiremux: remuxer %s => %s is stopped", r.src.URL(), r.snk.URL())
		return false
	})

	// Session
	h.AddForEventName(EventNameSessionRestarted, func(e Event) bool {
		p := e.Payload.(EventSessionRestarted)
		l.Infof("astiremux: session %s is restarted (attempt %d) after: %s", e.Target.(*Session).name(), p.Attempt, p.Err)
		return false
	})
	h.AddForEventName(EventNameSessionStarted, func(e Event) bool {
		l.Infof("astiremux: session %s is started", e.Target.(*Session).name())
		return false
	})
	h.AddForEventName(EventNameSessionStopped, func(e Event) bool {
		l.Infof("astiremux: session %s is stopped", e.Target.(*Session).name())
		return false
	})
	return
}
