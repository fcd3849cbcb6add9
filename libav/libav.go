package astilibav

import (
	"math"
	"sync"

	"github.com/asticode/go-astiav"
	astiremux "github.com/asticode/go-astiremux"
)

// NoPtsValue is the libav value of undefined timestamps
const NoPtsValue int64 = math.MinInt64

var setupOnce sync.Once

// Setup registers devices. It must be called once per process before opening any input or output,
// further calls are no-ops.
// Network initialization is handled by libav itself when a network protocol is first used.
func Setup() {
	setupOnce.Do(func() {
		astiav.RegisterAllDevices()
	})
}

// Driver opens inputs and outputs using libav
type Driver struct{}

// NewDriver creates a new driver
func NewDriver() *Driver {
	return &Driver{}
}

// NewDemuxer implements the astiremux.Driver interface
func (d *Driver) NewDemuxer(o astiremux.DemuxerOptions) (astiremux.Demuxer, error) {
	dm, err := NewDemuxer(o)
	if err != nil {
		return nil, err
	}
	return dm, nil
}

// NewMuxer implements the astiremux.Driver interface
func (d *Driver) NewMuxer(o astiremux.MuxerOptions) (astiremux.Muxer, error) {
	m, err := NewMuxer(o)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func timestampFromLibav(v int64) astiremux.Timestamp {
	if v == NoPtsValue {
		return astiremux.NoTimestamp
	}
	return astiremux.NewTimestamp(v)
}

func timestampToLibav(t astiremux.Timestamp) int64 {
	v, ok := t.Value()
	if !ok {
		return NoPtsValue
	}
	return v
}

func rationalFromLibav(r astiav.Rational) astiremux.Rational {
	return astiremux.NewRational(r.Num(), r.Den())
}

func rationalToLibav(r astiremux.Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}
