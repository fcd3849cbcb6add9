package astilibav

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asticode/go-astiav"
	astiremux "github.com/asticode/go-astiremux"
)

func newStream(s *astiav.Stream) *astiremux.Stream {
	return &astiremux.Stream{
		Description: streamDescription(s),
		Index:       s.Index(),
		MediaType:   mediaTypeFromLibav(s.CodecParameters().MediaType()),
		Parameters:  s.CodecParameters(),
		TimeBase:    rationalFromLibav(s.TimeBase()),
	}
}

func mediaTypeFromLibav(t astiav.MediaType) astiremux.MediaType {
	switch t {
	case astiav.MediaTypeAttachment:
		return astiremux.MediaTypeAttachment
	case astiav.MediaTypeAudio:
		return astiremux.MediaTypeAudio
	case astiav.MediaTypeData:
		return astiremux.MediaTypeData
	case astiav.MediaTypeSubtitle:
		return astiremux.MediaTypeSubtitle
	case astiav.MediaTypeVideo:
		return astiremux.MediaTypeVideo
	default:
		return astiremux.MediaTypeUnknown
	}
}

func streamDescription(s *astiav.Stream) string {
	// Shared
	cp := s.CodecParameters()
	t := mediaTypeFromLibav(cp.MediaType())
	ss := []string{
		"codec type: " + t.String(),
		fmt.Sprintf("codec: %s", cp.CodecID()),
	}
	if cp.BitRate() > 0 {
		ss = append(ss, "bitrate: "+strconv.FormatInt(cp.BitRate(), 10))
	}
	if tb := s.TimeBase(); tb.Num() > 0 && tb.Den() > 0 {
		ss = append(ss, "timebase: "+rationalFromLibav(tb).String())
	}

	// Video
	if t == astiremux.MediaTypeVideo {
		if cp.Width() > 0 && cp.Height() > 0 {
			ss = append(ss, fmt.Sprintf("size: %dx%d", cp.Width(), cp.Height()))
		}
		if fr := s.AvgFrameRate(); fr.Num() > 0 && fr.Den() > 0 {
			ss = append(ss, "framerate: "+rationalFromLibav(fr).String())
		}
	}
	return strings.Join(ss, " - ")
}
