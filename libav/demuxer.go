package astilibav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	astiremux "github.com/asticode/go-astiremux"
)

// Demuxer represents an opened libav input
type Demuxer struct {
	c         *astikit.Closer
	ctxFormat *astiav.FormatContext
	pkt       *astiav.Packet
	ss        []*astiremux.Stream
	url       string
}

// NewDemuxer opens the input, probes its streams and allocates the packet packets are read into
func NewDemuxer(o astiremux.DemuxerOptions) (d *Demuxer, err error) {
	// Create demuxer
	d = &Demuxer{
		c:   astikit.NewCloser(),
		url: o.URL,
	}

	// Make sure partially created resources are released on failure
	defer func() {
		if err != nil {
			d.c.Close()
			d = nil
		}
	}()

	// Find input format
	f := astiav.FindInputFormat(o.FormatName)
	if f == nil {
		err = astiremux.NewError(astiremux.ErrFormatNotFound, nil, "finding input format %s", o.FormatName)
		return
	}

	// Alloc format context
	if d.ctxFormat = astiav.AllocFormatContext(); d.ctxFormat == nil {
		err = astiremux.NewError(astiremux.ErrAllocFailed, nil, "allocating input format context")
		return
	}

	// Parse dict
	var dict *astiav.Dictionary
	if dict, err = NewDefaultDictionary(o.Dict).parse(nil); err != nil {
		err = astiremux.NewError(astiremux.ErrInvalidArgument, err, "parsing input options")
		d.ctxFormat.Free()
		return
	}
	if dict != nil {
		defer dict.Free()
	}

	// Open input
	// The format context is freed by libav when this fails
	if err = d.ctxFormat.OpenInput(o.URL, f, dict); err != nil {
		err = astiremux.NewError(astiremux.ErrOpenFailed, err, "opening input %s", o.URL)
		return
	}

	// Make sure the input is properly closed
	d.c.AddWithError(func() error {
		d.ctxFormat.CloseInput()
		return nil
	})

	// Retrieve stream information
	if err = d.ctxFormat.FindStreamInfo(nil); err != nil {
		err = astiremux.NewError(astiremux.ErrOpenFailed, err, "finding stream info of %s", o.URL)
		return
	}

	// Index streams
	for _, s := range d.ctxFormat.Streams() {
		d.ss = append(d.ss, newStream(s))
	}

	// Alloc packet
	if d.pkt = astiav.AllocPacket(); d.pkt == nil {
		err = astiremux.NewError(astiremux.ErrAllocFailed, nil, "allocating packet")
		return
	}

	// Make sure the packet is properly freed
	d.c.AddWithError(func() error {
		d.pkt.Free()
		return nil
	})
	return
}

// Streams implements the astiremux.Demuxer interface
func (d *Demuxer) Streams() []*astiremux.Stream {
	return d.ss
}

// ReadPacket implements the astiremux.Demuxer interface
// The packet payload is only valid until the next call.
func (d *Demuxer) ReadPacket(pkt *astiremux.Packet) error {
	// Release previous packet data
	d.pkt.Unref()

	// Read frame
	if err := d.ctxFormat.ReadFrame(d.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return io.EOF
		}
		return fmt.Errorf("astilibav: reading frame failed: %w", err)
	}

	// Update packet
	pkt.Dts = timestampFromLibav(d.pkt.Dts())
	pkt.Duration = d.pkt.Duration()
	pkt.Payload = d.pkt
	pkt.Pos = d.pkt.Pos()
	pkt.Pts = timestampFromLibav(d.pkt.Pts())
	pkt.Size = d.pkt.Size()
	pkt.StreamIndex = d.pkt.StreamIndex()
	return nil
}

// Close implements the astiremux.Demuxer interface
func (d *Demuxer) Close() error {
	return d.c.Close()
}
