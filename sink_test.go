package astiremux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSource(t *testing.T, tb Rational) (*Source, *fakeDemuxer) {
	dm := newFakeDemuxer([]*Stream{audioStream(0), videoStream(1, tb)}, nil)
	s, err := OpenSource(newFakeDriver(dm, nil), SourceOptions{FormatName: "mp4", URL: "in.mp4"})
	require.NoError(t, err)
	return s, dm
}

func TestOpenSinkInvalidArgument(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	d := newFakeDriver(nil, newFakeMuxer())
	for _, c := range []struct {
		d   Driver
		o   SinkOptions
		src *Source
	}{
		{d: d, o: SinkOptions{FormatName: "mpegts", URL: "out.ts"}},
		{d: d, o: SinkOptions{URL: "out.ts"}, src: src},
		{d: d, o: SinkOptions{FormatName: "mpegts"}, src: src},
		{o: SinkOptions{FormatName: "mpegts", URL: "out.ts"}, src: src},
	} {
		s, err := OpenSink(c.d, c.src, c.o)
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
	assert.Equal(t, 0, d.newMuxers)
}

func TestOpenSinkDriverErrors(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	d := newFakeDriver(nil, newFakeMuxer())
	for _, kind := range []error{ErrFormatNotFound, ErrAllocFailed, ErrCodecCopyFailed, ErrOpenFailed} {
		d.muxerErr = NewError(kind, errors.New("libav error"), "creating muxer")
		s, err := OpenSink(d, src, SinkOptions{FormatName: "mpegts", URL: "out.ts"})
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, kind))
	}
}

func TestOpenSinkHeaderWriteFailed(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	m := newFakeMuxer(videoStream(0, NewRational(1, 90000)))
	m.headerErr = errors.New("Invalid data found when processing input")
	s, err := OpenSink(newFakeDriver(nil, m), src, SinkOptions{FormatName: "mpegts", URL: "out.ts"})
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrHeaderWriteFailed))

	// Muxer has been released but no trailer has been written
	assert.Equal(t, 1, m.closed)
	assert.False(t, m.trailer)
}

func TestSink(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 1000))
	defer src.Close()
	m := newFakeMuxer(videoStream(0, NewRational(1, 90000)))
	d := newFakeDriver(nil, m)
	s, err := OpenSink(d, src, SinkOptions{Dict: "mpegts_flags=resend_headers", FormatName: "mpegts", URL: "out.ts"})
	require.NoError(t, err)
	assert.True(t, d.muxerOpts.FlushPackets)
	assert.Equal(t, src.Stream(), d.muxerOpts.Stream)
	assert.Equal(t, "mpegts_flags=resend_headers", d.muxerOpts.Dict)
	assert.False(t, s.LastDts().IsSet())
	assert.Equal(t, NewRational(1, 90000), s.Stream().TimeBase)

	// First packet goes through, only rescaled
	res, err := s.WritePacket(&Packet{Dts: ts(40), Duration: 40, Pos: 2048, Pts: ts(80), StreamIndex: 1})
	require.NoError(t, err)
	assert.False(t, res.Forced)
	assert.Equal(t, ts(3600), s.LastDts())

	// Regressing dts is forced
	res, err = s.WritePacket(&Packet{Dts: ts(0), Duration: 40, Pts: ts(0), StreamIndex: 1})
	require.NoError(t, err)
	assert.True(t, res.Forced)
	assert.Equal(t, ts(0), res.InputDts)
	assert.Equal(t, []Packet{
		{Dts: ts(3600), Duration: 3600, Pos: PosUnknown, Pts: ts(7200), StreamIndex: 0},
		{Dts: ts(3601), Duration: 3600, Pos: PosUnknown, Pts: ts(3601), StreamIndex: 0},
	}, m.written())

	// Close
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, m.trailer)
	assert.Equal(t, 1, m.closed)
	_, err = s.WritePacket(&Packet{Dts: ts(200), StreamIndex: 1})
	assert.True(t, errors.Is(err, ErrWriteFailed))

	// Nil sink
	var ns *Sink
	assert.NoError(t, ns.Close())
}

func TestSinkForcedAdvance(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	m := newFakeMuxer(videoStream(0, NewRational(1, 90000)))
	s, err := OpenSink(newFakeDriver(nil, m), src, SinkOptions{FormatName: "mpegts", URL: "out.ts"})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.WritePacket(&Packet{Dts: ts(10), Pts: ts(10), StreamIndex: 1})
	require.NoError(t, err)
	_, err = s.WritePacket(&Packet{Dts: ts(5), Pts: ts(5), StreamIndex: 1})
	require.NoError(t, err)
	pkts := m.written()
	require.Len(t, pkts, 2)
	assert.Equal(t, ts(11), pkts[1].Dts)
	assert.Equal(t, ts(11), pkts[1].Pts)
	assert.Equal(t, ts(11), s.LastDts())
}

func TestSinkStreamIndexNotFound(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	m := newFakeMuxer()
	s, err := OpenSink(newFakeDriver(nil, m), src, SinkOptions{FormatName: "mpegts", URL: "out.ts"})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.WritePacket(&Packet{Dts: ts(10), Pts: ts(10), StreamIndex: 1})
	assert.True(t, errors.Is(err, ErrStreamIndexNotFound))
	assert.Empty(t, m.written())
}

func TestSinkWriteFailed(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	m := newFakeMuxer(videoStream(0, NewRational(1, 90000)))
	s, err := OpenSink(newFakeDriver(nil, m), src, SinkOptions{FormatName: "flv", URL: "rtmp://localhost/live"})
	require.NoError(t, err)
	defer s.Close()
	m.writeErr = errors.New("Broken pipe")
	_, err = s.WritePacket(&Packet{Dts: ts(10), Pts: ts(10), StreamIndex: 1})
	assert.True(t, errors.Is(err, ErrWriteFailed))
	assert.Equal(t, "astiremux: writing packet with dts 10 to rtmp://localhost/live failed: Broken pipe", err.Error())

	// Last dts is committed before writing
	assert.Equal(t, ts(10), s.LastDts())
}

func TestSinkTrailerWriteFailed(t *testing.T) {
	src, _ := openTestSource(t, NewRational(1, 90000))
	defer src.Close()
	m := newFakeMuxer(videoStream(0, NewRational(1, 90000)))
	l := newMockedStdLogger()
	s, err := OpenSink(newFakeDriver(nil, m), src, SinkOptions{FormatName: "mpegts", Logger: l, URL: "out.ts"})
	require.NoError(t, err)
	m.trailerErr = errors.New("I/O error")
	err = s.Close()
	assert.True(t, errors.Is(err, ErrTrailerWriteFailed))

	// Resources are released anyway
	assert.Equal(t, 1, m.closed)
	assert.NotEmpty(t, l.messages())
}
