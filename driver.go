package astiremux

// Driver represents an object capable of opening input and output containers.
// Errors returned by NewDemuxer and NewMuxer should be of the *Error type so that
// callers can tell apart ErrFormatNotFound, ErrAllocFailed, ErrCodecCopyFailed and ErrOpenFailed.
type Driver interface {
	NewDemuxer(o DemuxerOptions) (Demuxer, error)
	NewMuxer(o MuxerOptions) (Muxer, error)
}

// DemuxerOptions represents demuxer options
type DemuxerOptions struct {
	// String content of the demuxer options as you would use in ffmpeg
	Dict string
	// Name of the input format
	FormatName string
	// URL of the input
	URL string
}

// Demuxer represents an opened input container
type Demuxer interface {
	Close() error
	// ReadPacket reads the next packet in container order and returns io.EOF once the end is reached
	ReadPacket(pkt *Packet) error
	Streams() []*Stream
}

// MuxerOptions represents muxer options
type MuxerOptions struct {
	// String content of the muxer options as you would use in ffmpeg
	Dict string
	// If true, the muxer flushes its I/O after each packet
	FlushPackets bool
	// Name of the output format
	FormatName string
	// Stream whose codec parameters are copied into the only output stream
	Stream *Stream
	// URL of the output
	URL string
}

// Muxer represents an opened output container
type Muxer interface {
	Close() error
	// Streams returns the output streams, their time bases are only final once the header is written
	Streams() []*Stream
	WriteHeader() error
	WritePacket(pkt *Packet) error
	WriteTrailer() error
}
