package astiremux

// PosUnknown is the position of a packet whose byte offset is unknown
const PosUnknown int64 = -1

// Packet represents a compressed packet
// A packet only lives for one read-process-write cycle
type Packet struct {
	Dts      Timestamp
	Duration int64
	// Opaque payload owned by the driver that produced the packet
	Payload     interface{}
	Pos         int64
	Pts         Timestamp
	Size        int
	StreamIndex int
}

// Reset resets the packet so that it can be read into again
func (p *Packet) Reset() {
	*p = Packet{Pos: PosUnknown}
}

// MediaType represents a stream media type
type MediaType int

// Media types
const (
	MediaTypeUnknown MediaType = iota
	MediaTypeAttachment
	MediaTypeAudio
	MediaTypeData
	MediaTypeSubtitle
	MediaTypeVideo
)

// String implements the Stringer interface
func (t MediaType) String() string {
	switch t {
	case MediaTypeAttachment:
		return "attachment"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Stream represents a container stream
type Stream struct {
	Description string
	Index       int
	MediaType   MediaType
	// Opaque codec parameters owned by the driver
	Parameters interface{}
	TimeBase   Rational
}
