package astiremux

// Restamper makes sure decode timestamps of packets written to an output stream are strictly
// increasing, and converts packet timestamps from the input time base to the output time base.
// It is not safe for concurrent use.
type Restamper struct {
	in      Rational
	lastDts Timestamp
	out     Rational
}

// RestampResult represents the result of a restamp
type RestampResult struct {
	// Whether the dts had to be forced forward
	Forced bool
	// Dts of the packet before it was restamped, expressed in the input time base
	InputDts Timestamp
}

// NewRestamper creates a new restamper
func NewRestamper(in, out Rational) *Restamper {
	return &Restamper{
		in:  in,
		out: out,
	}
}

// LastDts returns the dts of the last restamped packet, expressed in the output time base
func (r *Restamper) LastDts() Timestamp {
	return r.lastDts
}

// Restamp restamps the packet in place
func (r *Restamper) Restamp(pkt *Packet) (res RestampResult) {
	// Store input dts
	res.InputDts = pkt.Dts

	// Express timestamps in the output time base so that they can be compared to the last dts
	dts := r.rescale(pkt.Dts)
	pts := r.rescale(pkt.Pts)

	// Dts needs to be forced forward when it is either undefined or not increasing once a
	// baseline exists
	if lastDts, ok := r.lastDts.Value(); ok {
		if v, ok := dts.Value(); !ok || v <= lastDts {
			// Force dts one tick after the last one
			nextDts := lastDts + 1

			// Pts can't be smaller than dts
			if v, ok := pts.Value(); !ok || v < nextDts {
				pts = NewTimestamp(nextDts)
			}
			dts = NewTimestamp(nextDts)
			res.Forced = true
		}
	}

	// Undefined pts are never forwarded
	if !pts.IsSet() {
		pts = NewTimestamp(0)
	}

	// Update packet
	pkt.Dts = dts
	pkt.Duration = Rescale(pkt.Duration, r.in, r.out)
	pkt.Pos = PosUnknown
	pkt.Pts = pts

	// Commit
	if dts.IsSet() {
		r.lastDts = dts
	}
	return
}

func (r *Restamper) rescale(t Timestamp) Timestamp {
	v, ok := t.Value()
	if !ok {
		return t
	}
	return NewTimestamp(Rescale(v, r.in, r.out))
}
