package astiremux

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/asticode/go-astikit"
)

// Remuxer pulls packets from a source and pushes the ones belonging to its selected video stream
// to a sink. It is driven by a single goroutine.
type Remuxer struct {
	eh  *EventHandler
	m   *Metrics
	pkt *Packet
	s   *remuxerStats
	snk *Sink
	src *Source
}

// RemuxerOptions represents remuxer options
type RemuxerOptions struct {
	EventHandler *EventHandler
	Metrics      *Metrics
	Sink         *Sink
	Source       *Source
	// If set, incoming, written, discarded and forced rates are added to it
	Stater *Stater

	stats *remuxerStats
}

// NewRemuxer creates a new remuxer
func NewRemuxer(o RemuxerOptions) (r *Remuxer, err error) {
	// Check arguments
	if o.Source == nil || o.Sink == nil {
		err = NewError(ErrInvalidArgument, nil, "creating remuxer")
		return
	}

	// Create remuxer
	r = &Remuxer{
		eh:  o.EventHandler,
		m:   o.Metrics,
		pkt: &Packet{},
		s:   o.stats,
		snk: o.Sink,
		src: o.Source,
	}

	// Create stats
	if r.s == nil {
		r.s = newRemuxerStats()
		if o.Stater != nil {
			o.Stater.AddStats(r, r.s.statOptions()...)
		}
	}
	return
}

// Run remuxes packets until the end of the input is reached, an error occurs or the context is done.
// Reaching the end of the input is not an error. The context is checked between packets.
func (r *Remuxer) Run(ctx context.Context) (err error) {
	// Started
	r.m.running(1)
	r.eh.Emit(Event{
		Name:   EventNameRemuxerStarted,
		Target: r,
	})

	// Stopped
	defer func() {
		r.m.running(-1)
		r.eh.Emit(Event{
			Name:   EventNameRemuxerStopped,
			Target: r,
		})
	}()

	// Loop
	for {
		// Check context
		if err = ctx.Err(); err != nil {
			return
		}

		// Step
		if err = r.Step(); err != nil {
			// End of input
			if errors.Is(err, io.EOF) {
				err = nil
				return
			}

			// Emit
			r.m.error(err)
			r.eh.Emit(EventError(r, err))
			return
		}
	}
}

// Step reads one packet and writes it to the sink if it belongs to the selected video stream.
// io.EOF is returned once the end of the input is reached.
func (r *Remuxer) Step() (err error) {
	// Read
	if err = r.src.ReadPacket(r.pkt); err != nil {
		return
	}

	// Increment
	r.s.incoming()
	r.m.read()

	// Packets of other streams are dropped
	if r.pkt.StreamIndex != r.src.SelectedStreamIndex() {
		r.s.discarded()
		r.m.discarded()
		return
	}

	// Write
	var res RestampResult
	if res, err = r.snk.WritePacket(r.pkt); err != nil {
		return
	}

	// Increment
	r.s.written(res, r.pkt.Dts)
	r.m.written(res, r.pkt.Dts)

	// Dts has been forced
	if res.Forced {
		r.eh.Emit(Event{
			Name: EventNameDtsForced,
			Payload: EventDtsForced{
				InputDts:  res.InputDts,
				OutputDts: r.pkt.Dts,
			},
			Target: r,
		})
	}
	return
}

// RemuxerStatus represents the status of a remuxer
type RemuxerStatus struct {
	Discarded           uint64    `json:"discarded"`
	Forced              uint64    `json:"forced"`
	Incoming            uint64    `json:"incoming"`
	InputURL            string    `json:"input_url"`
	LastDts             Timestamp `json:"last_dts"`
	OutputURL           string    `json:"output_url"`
	SelectedStreamIndex int       `json:"selected_stream_index"`
	Written             uint64    `json:"written"`
}

// Status returns the status of the remuxer. It can be called from any goroutine.
func (r *Remuxer) Status() RemuxerStatus {
	return RemuxerStatus{
		Discarded:           atomic.LoadUint64(&r.s.countDiscarded),
		Forced:              atomic.LoadUint64(&r.s.countForced),
		Incoming:            atomic.LoadUint64(&r.s.countIncoming),
		InputURL:            r.src.URL(),
		LastDts:             r.s.lastDts(),
		OutputURL:           r.snk.URL(),
		SelectedStreamIndex: r.src.SelectedStreamIndex(),
		Written:             atomic.LoadUint64(&r.s.countWritten),
	}
}

type remuxerStats struct {
	countDiscarded uint64
	countForced    uint64
	countIncoming  uint64
	countWritten   uint64
	d              Timestamp
	m              *sync.Mutex // Locks d
	statDiscarded  *astikit.CounterRateStat
	statForced     *astikit.CounterRateStat
	statIncoming   *astikit.CounterRateStat
	statWritten    *astikit.CounterRateStat
}

func newRemuxerStats() *remuxerStats {
	return &remuxerStats{
		m:             &sync.Mutex{},
		statDiscarded: astikit.NewCounterRateStat(),
		statForced:    astikit.NewCounterRateStat(),
		statIncoming:  astikit.NewCounterRateStat(),
		statWritten:   astikit.NewCounterRateStat(),
	}
}

func (s *remuxerStats) statOptions() []astikit.StatOptions {
	return []astikit.StatOptions{
		{
			Handler: s.statIncoming,
			Metadata: &astikit.StatMetadata{
				Description: "Number of packets read per second",
				Label:       "Incoming rate",
				Name:        StatNameIncomingRate,
				Unit:        "pps",
			},
		},
		{
			Handler: s.statWritten,
			Metadata: &astikit.StatMetadata{
				Description: "Number of packets written per second",
				Label:       "Written rate",
				Name:        StatNameWrittenRate,
				Unit:        "pps",
			},
		},
		{
			Handler: s.statDiscarded,
			Metadata: &astikit.StatMetadata{
				Description: "Number of packets discarded per second",
				Label:       "Discarded rate",
				Name:        StatNameDiscardedRate,
				Unit:        "pps",
			},
		},
		{
			Handler: s.statForced,
			Metadata: &astikit.StatMetadata{
				Description: "Number of packets whose dts has been forced per second",
				Label:       "Forced rate",
				Name:        StatNameForcedRate,
				Unit:        "pps",
			},
		},
	}
}

func (s *remuxerStats) incoming() {
	atomic.AddUint64(&s.countIncoming, 1)
	s.statIncoming.Add(1)
}

func (s *remuxerStats) discarded() {
	atomic.AddUint64(&s.countDiscarded, 1)
	s.statDiscarded.Add(1)
}

func (s *remuxerStats) written(res RestampResult, dts Timestamp) {
	atomic.AddUint64(&s.countWritten, 1)
	s.statWritten.Add(1)
	if res.Forced {
		atomic.AddUint64(&s.countForced, 1)
		s.statForced.Add(1)
	}
	if dts.IsSet() {
		s.m.Lock()
		s.d = dts
		s.m.Unlock()
	}
}

func (s *remuxerStats) lastDts() Timestamp {
	s.m.Lock()
	defer s.m.Unlock()
	return s.d
}
