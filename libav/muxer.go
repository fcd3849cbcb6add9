package astilibav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	astiremux "github.com/asticode/go-astiremux"
)

// Muxer represents an opened libav output with a single stream
type Muxer struct {
	c         *astikit.Closer
	ctxFormat *astiav.FormatContext
	dict      *astiav.Dictionary
	s         *astiav.Stream
	url       string
}

// NewMuxer allocates the output, clones the stream and opens the output I/O when needed
func NewMuxer(o astiremux.MuxerOptions) (m *Muxer, err error) {
	// Get codec parameters
	var cp *astiav.CodecParameters
	if o.Stream != nil {
		cp, _ = o.Stream.Parameters.(*astiav.CodecParameters)
	}
	if cp == nil {
		err = astiremux.NewError(astiremux.ErrInvalidArgument, nil, "getting codec parameters of the stream to clone")
		return
	}

	// Create muxer
	m = &Muxer{
		c:   astikit.NewCloser(),
		url: o.URL,
	}

	// Make sure partially created resources are released on failure
	defer func() {
		if err != nil {
			m.c.Close()
			m = nil
		}
	}()

	// Find output format
	f := astiav.FindOutputFormat(o.FormatName)
	if f == nil {
		err = astiremux.NewError(astiremux.ErrFormatNotFound, nil, "finding output format %s", o.FormatName)
		return
	}

	// Alloc format context
	if m.ctxFormat, err = astiav.AllocOutputFormatContext(f, "", o.URL); err != nil || m.ctxFormat == nil {
		if err == nil {
			err = errors.New("astilibav: format context is nil")
		}
		err = astiremux.NewError(astiremux.ErrAllocFailed, err, "allocating output format context for %s", o.URL)
		return
	}

	// Make sure the format context is properly freed
	m.c.AddWithError(func() error {
		m.ctxFormat.Free()
		return nil
	})

	// Parse dict
	extra := make(map[string]string)
	if o.FlushPackets {
		extra["flush_packets"] = "1"
	}
	if m.dict, err = NewDefaultDictionary(o.Dict).parse(extra); err != nil {
		err = astiremux.NewError(astiremux.ErrInvalidArgument, err, "parsing output options")
		return
	}
	if m.dict != nil {
		m.c.AddWithError(func() error {
			m.dict.Free()
			return nil
		})
	}

	// Add stream
	if m.s = m.ctxFormat.NewStream(nil); m.s == nil {
		err = astiremux.NewError(astiremux.ErrAllocFailed, nil, "adding stream to %s", o.URL)
		return
	}

	// Copy codec parameters
	if err = cp.Copy(m.s.CodecParameters()); err != nil {
		err = astiremux.NewError(astiremux.ErrCodecCopyFailed, err, "copying codec parameters to %s", o.URL)
		return
	}

	// Reset codec tag since it may not be valid in the output container
	m.s.CodecParameters().SetCodecTag(0)

	// The muxer may pick another time base when writing the header
	m.s.SetTimeBase(rationalToLibav(o.Stream.TimeBase))

	// This is a file
	if !m.ctxFormat.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		// Open
		ioContext := astiav.NewIOContext()
		if err = ioContext.Open(o.URL, astiav.NewIOContextFlags(astiav.IOContextFlagWrite)); err != nil {
			err = astiremux.NewError(astiremux.ErrOpenFailed, err, "opening output %s", o.URL)
			return
		}

		// Set pb
		m.ctxFormat.SetPb(ioContext)

		// Make sure the io context is properly closed
		m.c.AddWithError(func() error {
			if err := ioContext.Closep(); err != nil {
				return fmt.Errorf("astilibav: closing io context of %s failed: %w", o.URL, err)
			}
			return nil
		})
	}
	return
}

// Streams implements the astiremux.Muxer interface
// Time bases are read from libav on each call
func (m *Muxer) Streams() (ss []*astiremux.Stream) {
	for _, s := range m.ctxFormat.Streams() {
		ss = append(ss, newStream(s))
	}
	return
}

// WriteHeader implements the astiremux.Muxer interface
func (m *Muxer) WriteHeader() error {
	if err := m.ctxFormat.WriteHeader(m.dict); err != nil {
		return fmt.Errorf("astilibav: writing header failed: %w", err)
	}
	return nil
}

// WritePacket implements the astiremux.Muxer interface
// The packet payload must be a libav packet, it is updated with the packet's timing fields.
func (m *Muxer) WritePacket(pkt *astiremux.Packet) error {
	// Get libav packet
	p, ok := pkt.Payload.(*astiav.Packet)
	if !ok || p == nil {
		return fmt.Errorf("astilibav: payload %T is not a libav packet", pkt.Payload)
	}

	// Update libav packet
	p.SetDts(timestampToLibav(pkt.Dts))
	p.SetDuration(pkt.Duration)
	p.SetPos(pkt.Pos)
	p.SetPts(timestampToLibav(pkt.Pts))
	p.SetStreamIndex(pkt.StreamIndex)

	// Write frame
	if err := m.ctxFormat.WriteFrame(p); err != nil {
		return fmt.Errorf("astilibav: writing frame failed: %w", err)
	}
	return nil
}

// WriteTrailer implements the astiremux.Muxer interface
func (m *Muxer) WriteTrailer() error {
	if err := m.ctxFormat.WriteTrailer(); err != nil {
		return fmt.Errorf("astilibav: writing trailer failed: %w", err)
	}
	return nil
}

// Close implements the astiremux.Muxer interface
func (m *Muxer) Close() error {
	return m.c.Close()
}
