package astiremux

import (
	"fmt"
	"io"
	"sync"
)

type fakeDriver struct {
	demuxer     *fakeDemuxer
	demuxerErr  error
	demuxerOpts DemuxerOptions
	muxer       *fakeMuxer
	muxerErr    error
	muxerOpts   MuxerOptions
	newDemuxers int
	newMuxers   int
}

func newFakeDriver(d *fakeDemuxer, m *fakeMuxer) *fakeDriver {
	return &fakeDriver{
		demuxer: d,
		muxer:   m,
	}
}

func (d *fakeDriver) NewDemuxer(o DemuxerOptions) (Demuxer, error) {
	d.newDemuxers++
	d.demuxerOpts = o
	if d.demuxerErr != nil {
		return nil, d.demuxerErr
	}
	d.demuxer.reset()
	return d.demuxer, nil
}

func (d *fakeDriver) NewMuxer(o MuxerOptions) (Muxer, error) {
	d.newMuxers++
	d.muxerOpts = o
	if d.muxerErr != nil {
		return nil, d.muxerErr
	}
	d.muxer.reset()
	return d.muxer, nil
}

type fakeDemuxer struct {
	closed  int
	idx     int
	m       *sync.Mutex
	pkts    []Packet
	readErr error
	streams []*Stream
}

func newFakeDemuxer(streams []*Stream, pkts []Packet) *fakeDemuxer {
	return &fakeDemuxer{
		m:       &sync.Mutex{},
		pkts:    pkts,
		streams: streams,
	}
}

func (d *fakeDemuxer) reset() {
	d.m.Lock()
	defer d.m.Unlock()
	d.idx = 0
}

func (d *fakeDemuxer) Close() error {
	d.m.Lock()
	defer d.m.Unlock()
	d.closed++
	return nil
}

func (d *fakeDemuxer) ReadPacket(pkt *Packet) error {
	d.m.Lock()
	defer d.m.Unlock()
	if d.idx >= len(d.pkts) {
		if d.readErr != nil {
			return d.readErr
		}
		return io.EOF
	}
	*pkt = d.pkts[d.idx]
	d.idx++
	return nil
}

func (d *fakeDemuxer) Streams() []*Stream { return d.streams }

type fakeMuxer struct {
	closeErr   error
	closed     int
	header     bool
	headerErr  error
	m          *sync.Mutex
	pkts       []Packet
	streams    []*Stream
	trailer    bool
	trailerErr error
	writeErr   error
}

func newFakeMuxer(streams ...*Stream) *fakeMuxer {
	return &fakeMuxer{
		m:       &sync.Mutex{},
		streams: streams,
	}
}

func (m *fakeMuxer) reset() {
	m.m.Lock()
	defer m.m.Unlock()
	m.header = false
	m.trailer = false
}

func (m *fakeMuxer) Close() error {
	m.m.Lock()
	defer m.m.Unlock()
	m.closed++
	return m.closeErr
}

func (m *fakeMuxer) Streams() []*Stream { return m.streams }

func (m *fakeMuxer) WriteHeader() error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.headerErr != nil {
		return m.headerErr
	}
	m.header = true
	return nil
}

func (m *fakeMuxer) WritePacket(pkt *Packet) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if !m.header {
		return fmt.Errorf("header has not been written")
	}
	m.pkts = append(m.pkts, *pkt)
	return nil
}

func (m *fakeMuxer) WriteTrailer() error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.trailerErr != nil {
		return m.trailerErr
	}
	m.trailer = true
	return nil
}

func (m *fakeMuxer) written() []Packet {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]Packet{}, m.pkts...)
}

type mockedStdLogger struct {
	m  *sync.Mutex
	ss []string
}

func newMockedStdLogger() *mockedStdLogger {
	return &mockedStdLogger{m: &sync.Mutex{}}
}

func (l *mockedStdLogger) Fatal(v ...interface{}) { l.Print(v...) }

func (l *mockedStdLogger) Fatalf(format string, v ...interface{}) { l.Printf(format, v...) }

func (l *mockedStdLogger) Print(v ...interface{}) {
	l.m.Lock()
	defer l.m.Unlock()
	l.ss = append(l.ss, fmt.Sprint(v...))
}

func (l *mockedStdLogger) Printf(format string, v ...interface{}) {
	l.m.Lock()
	defer l.m.Unlock()
	l.ss = append(l.ss, fmt.Sprintf(format, v...))
}

func (l *mockedStdLogger) messages() []string {
	l.m.Lock()
	defer l.m.Unlock()
	return append([]string{}, l.ss...)
}

func videoStream(idx int, tb Rational) *Stream {
	return &Stream{
		Description: fmt.Sprintf("video #%d", idx),
		Index:       idx,
		MediaType:   MediaTypeVideo,
		TimeBase:    tb,
	}
}

func audioStream(idx int) *Stream {
	return &Stream{
		Description: fmt.Sprintf("audio #%d", idx),
		Index:       idx,
		MediaType:   MediaTypeAudio,
		TimeBase:    NewRational(1, 48000),
	}
}
