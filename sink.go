package astiremux

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

// Sink represents an opened output with exactly one stream, cloned from the source's video stream
type Sink struct {
	c             *astikit.Closer
	closed        bool
	headerWritten bool
	l             astikit.SeverityLogger
	m             Muxer
	r             *Restamper
	s             *Stream
	url           string
}

// SinkOptions represents sink options
type SinkOptions struct {
	// String content of the muxer options as you would use in ffmpeg
	Dict string
	// Name of the output format such as "mpegts", "flv" or "mp4"
	FormatName string
	Logger     astikit.StdLogger
	URL        string
}

// OpenSink opens the output, clones the source's video stream and writes the header.
// Packets are flushed to the output as soon as they are written.
func OpenSink(d Driver, src *Source, o SinkOptions) (s *Sink, err error) {
	// Check arguments
	if d == nil || src == nil || src.Stream() == nil || o.FormatName == "" || o.URL == "" {
		err = NewError(ErrInvalidArgument, nil, "opening sink with format %q and url %q", o.FormatName, o.URL)
		return
	}

	// Create sink
	s = &Sink{
		c:   astikit.NewCloser(),
		l:   astikit.AdaptStdLogger(o.Logger),
		url: o.URL,
	}

	// Make sure partially created resources are released on failure
	defer func() {
		if err != nil {
			if errC := s.Close(); errC != nil {
				s.l.Error(fmt.Errorf("astiremux: closing sink failed: %w", errC))
			}
			s = nil
		}
	}()

	// Create muxer
	if s.m, err = d.NewMuxer(MuxerOptions{
		Dict:         o.Dict,
		FlushPackets: true,
		FormatName:   o.FormatName,
		Stream:       src.Stream(),
		URL:          o.URL,
	}); err != nil {
		err = kindOr(err, ErrOpenFailed, "opening output %s", o.URL)
		return
	}

	// Make sure the muxer is properly closed
	s.c.AddWithError(s.m.Close)

	// Write header
	if err = s.m.WriteHeader(); err != nil {
		err = NewError(ErrHeaderWriteFailed, err, "writing header to %s", o.URL)
		return
	}
	s.headerWritten = true

	// Output time base is only final once the header has been written
	if s.s = s.stream(0); s.s != nil {
		s.r = NewRestamper(src.Stream().TimeBase, s.s.TimeBase)
	}
	return
}

func (s *Sink) stream(idx int) *Stream {
	for _, st := range s.m.Streams() {
		if st.Index == idx {
			return st
		}
	}
	return nil
}

// LastDts returns the dts of the last written packet, expressed in the output stream time base
func (s *Sink) LastDts() Timestamp {
	if s.r == nil {
		return NoTimestamp
	}
	return s.r.LastDts()
}

// Stream returns the output stream
func (s *Sink) Stream() *Stream {
	return s.s
}

// URL returns the output url
func (s *Sink) URL() string {
	return s.url
}

// WritePacket restamps the packet and writes it to the output.
// The packet must belong to the source's selected stream.
func (s *Sink) WritePacket(pkt *Packet) (res RestampResult, err error) {
	// Sink is closed
	if s.closed {
		err = NewError(ErrWriteFailed, errClosed, "writing packet to %s", s.url)
		return
	}

	// There's only one output stream
	pkt.StreamIndex = 0

	// Get output stream
	if s.r == nil || s.stream(pkt.StreamIndex) == nil {
		err = NewError(ErrStreamIndexNotFound, nil, "looking up output stream #%d of %s", pkt.StreamIndex, s.url)
		return
	}

	// Restamp
	res = s.r.Restamp(pkt)

	// Write
	if err = s.m.WritePacket(pkt); err != nil {
		err = NewError(ErrWriteFailed, err, "writing packet with dts %s to %s", pkt.Dts, s.url)
		return
	}
	return
}

// Close implements the io.Closer interface
// The trailer is written first but failing to do so doesn't prevent resources from being released.
// It can be called several times and on a nil sink.
func (s *Sink) Close() (err error) {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	// Write trailer
	if s.headerWritten {
		if errT := s.m.WriteTrailer(); errT != nil {
			err = NewError(ErrTrailerWriteFailed, errT, "writing trailer to %s", s.url)
			s.l.Error(err)
		}
	}

	// Release resources
	if errC := s.c.Close(); errC != nil {
		errC = fmt.Errorf("astiremux: closing sink %s failed: %w", s.url, errC)
		if err == nil {
			err = errC
		} else {
			s.l.Error(errC)
		}
	}
	return
}
