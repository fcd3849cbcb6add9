package astiremux

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astikit"
)

var errClosed = errors.New("astiremux: handle is closed")

// Source represents an opened input whose first video stream is selected
type Source struct {
	c      *astikit.Closer
	closed bool
	d      Demuxer
	l      astikit.SeverityLogger
	s      *Stream
	url    string
}

// SourceOptions represents source options
type SourceOptions struct {
	// String content of the demuxer options as you would use in ffmpeg
	Dict string
	// Name of the input format such as "mp4", "flv" or "v4l2"
	FormatName string
	Logger     astikit.StdLogger
	URL        string
	// If true, streams are logged once the input is opened
	Verbose bool
}

// OpenSource opens the input and selects its first video stream
func OpenSource(d Driver, o SourceOptions) (s *Source, err error) {
	// Check arguments
	if d == nil || o.FormatName == "" || o.URL == "" {
		err = NewError(ErrInvalidArgument, nil, "opening source with format %q and url %q", o.FormatName, o.URL)
		return
	}

	// Create source
	s = &Source{
		c:   astikit.NewCloser(),
		l:   astikit.AdaptStdLogger(o.Logger),
		url: o.URL,
	}

	// Make sure partially created resources are released on failure
	defer func() {
		if err != nil {
			if errC := s.Close(); errC != nil {
				s.l.Error(fmt.Errorf("astiremux: closing source failed: %w", errC))
			}
			s = nil
		}
	}()

	// Create demuxer
	if s.d, err = d.NewDemuxer(DemuxerOptions{
		Dict:       o.Dict,
		FormatName: o.FormatName,
		URL:        o.URL,
	}); err != nil {
		err = kindOr(err, ErrOpenFailed, "opening input %s", o.URL)
		return
	}

	// Make sure the demuxer is properly closed
	s.c.AddWithError(s.d.Close)

	// Loop through streams
	for _, st := range s.d.Streams() {
		// Log
		if o.Verbose {
			s.l.Infof("astiremux: input %s stream #%d: %s", o.URL, st.Index, st.Description)
		}

		// Select the first video stream
		if s.s == nil && st.MediaType == MediaTypeVideo {
			s.s = st
		}
	}

	// No video stream
	if s.s == nil {
		err = NewError(ErrNoVideoStream, nil, "selecting video stream of %s", o.URL)
		return
	}
	return
}

// SelectedStreamIndex returns the index of the selected video stream
func (s *Source) SelectedStreamIndex() int {
	return s.s.Index
}

// Stream returns the selected video stream
func (s *Source) Stream() *Stream {
	return s.s
}

// URL returns the input url
func (s *Source) URL() string {
	return s.url
}

// ReadPacket reads the next packet in container order.
// Packets of all streams are returned, io.EOF is returned once the end of the input is reached.
func (s *Source) ReadPacket(pkt *Packet) error {
	// Source is closed
	if s.closed {
		return NewError(ErrReadFailed, errClosed, "reading packet from %s", s.url)
	}

	// Reset packet
	pkt.Reset()

	// Read
	if err := s.d.ReadPacket(pkt); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return NewError(ErrReadFailed, err, "reading packet from %s", s.url)
	}
	return nil
}

// Close implements the io.Closer interface
// It can be called several times and on a nil source
func (s *Source) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if err := s.c.Close(); err != nil {
		return fmt.Errorf("astiremux: closing source %s failed: %w", s.url, err)
	}
	return nil
}

func kindOr(err, kind error, format string, args ...interface{}) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewError(kind, err, format, args...)
}
