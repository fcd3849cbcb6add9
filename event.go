package astiremux

// EventName represents an event name
type EventName string

// Default event names
const (
	EventNameDtsForced        EventName = "astiremux.dts.forced"
	EventNameError            EventName = "astiremux.error"
	EventNameRemuxerStarted   EventName = "astiremux.remuxer.started"
	EventNameRemuxerStopped   EventName = "astiremux.remuxer.stopped"
	EventNameSessionRestarted EventName = "astiremux.session.restarted"
	EventNameSessionStarted   EventName = "astiremux.session.started"
	EventNameSessionStopped   EventName = "astiremux.session.stopped"
	EventNameStats            EventName = "astiremux.stats"
)

// Event is an event coming out of the remuxer
type Event struct {
	Name    EventName
	Payload interface{}
	Target  interface{}
}

// EventError returns an error event
func EventError(target interface{}, err error) Event {
	return Event{
		Name:    EventNameError,
		Payload: err,
		Target:  target,
	}
}

// EventDtsForced is the payload of EventNameDtsForced events
type EventDtsForced struct {
	// Dts before it was forced, expressed in the input time base
	InputDts Timestamp
	// Dts after it was forced, expressed in the output time base
	OutputDts Timestamp
}

// EventSessionRestarted is the payload of EventNameSessionRestarted events
type EventSessionRestarted struct {
	Attempt int
	Err     error
}
