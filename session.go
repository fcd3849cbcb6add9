package astiremux

import (
	"context"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
)

// Session states
const (
	SessionStateIdle       = "idle"
	SessionStateRestarting = "restarting"
	SessionStateRunning    = "running"
	SessionStateStopped    = "stopped"
)

// Session opens a source and a sink, remuxes until the input ends and may start over with fresh
// handles when an error occurs. Each attempt starts with an unset last dts.
type Session struct {
	d        Driver
	eh       *EventHandler
	l        astikit.SeverityLogger
	m        *sync.Mutex // Locks r, restarts and state
	me       *Metrics
	o        SessionOptions
	r        *Remuxer
	restarts int
	s        *remuxerStats
	state    string
}

// SessionOptions represents session options
type SessionOptions struct {
	EventHandler *EventHandler
	Logger       astikit.StdLogger
	Metrics      *Metrics
	Restart      SessionRestartOptions
	Sink         SinkOptions
	Source       SourceOptions
	Stater       *Stater
}

// SessionRestartOptions represents session restart options
type SessionRestartOptions struct {
	Delay   time.Duration
	Enabled bool
	// 0 means no limit
	Max int
}

// NewSession creates a new session
func NewSession(d Driver, o SessionOptions) (s *Session, err error) {
	// Check arguments
	if d == nil {
		err = NewError(ErrInvalidArgument, nil, "creating session")
		return
	}

	// Loggers default to the session's
	if o.Source.Logger == nil {
		o.Source.Logger = o.Logger
	}
	if o.Sink.Logger == nil {
		o.Sink.Logger = o.Logger
	}

	// Create session
	s = &Session{
		d:     d,
		eh:    o.EventHandler,
		l:     astikit.AdaptStdLogger(o.Logger),
		m:     &sync.Mutex{},
		me:    o.Metrics,
		o:     o,
		s:     newRemuxerStats(),
		state: SessionStateIdle,
	}

	// Add stats
	if o.Stater != nil {
		o.Stater.AddStats(s, s.s.statOptions()...)
	}
	return
}

func (s *Session) name() string {
	return s.o.Source.URL + " => " + s.o.Sink.URL
}

func (s *Session) setState(state string) {
	s.m.Lock()
	defer s.m.Unlock()
	s.state = state
}

// Run runs the session until the input ends, the context is done or an error can't be recovered from.
// Cancelling the context is not an error.
func (s *Session) Run(ctx context.Context) (err error) {
	// Started
	s.setState(SessionStateRunning)
	s.eh.Emit(Event{
		Name:   EventNameSessionStarted,
		Target: s,
	})

	// Stopped
	defer func() {
		s.setState(SessionStateStopped)
		s.eh.Emit(Event{
			Name:   EventNameSessionStopped,
			Target: s,
		})
	}()

	// Loop
	for {
		// Run once
		if err = s.runOnce(ctx); err == nil {
			return
		}

		// Context is done
		if ctx.Err() != nil {
			err = nil
			return
		}

		// Restart is disabled or limit has been reached
		s.m.Lock()
		restarts := s.restarts
		s.m.Unlock()
		if !s.o.Restart.Enabled || (s.o.Restart.Max > 0 && restarts >= s.o.Restart.Max) {
			return
		}

		// Sleep
		s.setState(SessionStateRestarting)
		if errS := astikit.Sleep(ctx, s.o.Restart.Delay); errS != nil {
			err = nil
			return
		}

		// Restart
		s.m.Lock()
		s.restarts++
		restarts = s.restarts
		s.state = SessionStateRunning
		s.m.Unlock()
		s.me.restarted()
		s.eh.Emit(Event{
			Name: EventNameSessionRestarted,
			Payload: EventSessionRestarted{
				Attempt: restarts,
				Err:     err,
			},
			Target: s,
		})
	}
}

func (s *Session) runOnce(ctx context.Context) (err error) {
	// Open source
	var src *Source
	if src, err = OpenSource(s.d, s.o.Source); err != nil {
		s.error(err)
		return
	}
	defer s.close(src)

	// Open sink
	var snk *Sink
	if snk, err = OpenSink(s.d, src, s.o.Sink); err != nil {
		s.error(err)
		return
	}
	defer func() {
		if errC := snk.Close(); errC != nil {
			s.error(errC)
			if err == nil {
				err = errC
			}
		}
	}()

	// Create remuxer
	var r *Remuxer
	if r, err = NewRemuxer(RemuxerOptions{
		EventHandler: s.eh,
		Metrics:      s.me,
		Sink:         snk,
		Source:       src,
		stats:        s.s,
	}); err != nil {
		s.error(err)
		return
	}

	// Store remuxer
	s.m.Lock()
	s.r = r
	s.m.Unlock()

	// Run
	// Errors are emitted by the remuxer
	err = r.Run(ctx)
	return
}

func (s *Session) close(src *Source) {
	if err := src.Close(); err != nil {
		s.l.Error(err)
	}
}

func (s *Session) error(err error) {
	s.me.error(err)
	s.eh.Emit(EventError(s, err))
}

// SessionStatus represents the status of a session
type SessionStatus struct {
	Name     string         `json:"name"`
	Remuxer  *RemuxerStatus `json:"remuxer,omitempty"`
	Restarts int            `json:"restarts"`
	State    string         `json:"state"`
}

// Status returns the status of the session. It can be called from any goroutine.
func (s *Session) Status() (ss SessionStatus) {
	s.m.Lock()
	defer s.m.Unlock()
	ss = SessionStatus{
		Name:     s.name(),
		Restarts: s.restarts,
		State:    s.state,
	}
	if s.r != nil {
		rs := s.r.Status()
		ss.Remuxer = &rs
	}
	return
}
