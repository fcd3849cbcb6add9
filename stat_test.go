package astiremux

import (
	"testing"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStater(t *testing.T) {
	eh := NewEventHandler()
	var es []Event
	eh.AddForEventName(EventNameStats, func(e Event) bool {
		es = append(es, e)
		return false
	})
	s := NewStater(time.Second, eh)

	// Add stats
	t1, t2 := &struct{ n int }{n: 1}, &struct{ n int }{n: 2}
	rs := newRemuxerStats()
	opts := rs.statOptions()
	s.AddStats(t1, opts[0], opts[1])
	s.AddStats(t2, opts[2])
	unknown := &astikit.StatMetadata{Name: "unknown"}

	// Handle
	s.handle([]astikit.StatValue{
		{StatMetadata: opts[0].Metadata, Value: 1.0},
		{StatMetadata: opts[2].Metadata, Value: 3.0},
		{StatMetadata: opts[1].Metadata, Value: 2.0},
		{StatMetadata: unknown, Value: 4.0},
	})
	require.Len(t, es, 2)
	assert.Equal(t, t1, es[0].Target)
	assert.Equal(t, []EventStat{
		{Description: "Number of packets read per second", Label: "Incoming rate", Name: StatNameIncomingRate, Unit: "pps", Value: 1.0},
		{Description: "Number of packets written per second", Label: "Written rate", Name: StatNameWrittenRate, Unit: "pps", Value: 2.0},
	}, es[0].Payload)
	assert.Equal(t, t2, es[1].Target)
	assert.Equal(t, []EventStat{
		{Description: "Number of packets discarded per second", Label: "Discarded rate", Name: StatNameDiscardedRate, Unit: "pps", Value: 3.0},
	}, es[1].Payload)

	// No stats
	s.handle(nil)
	assert.Len(t, es, 2)
}

func TestStatPSUtil(t *testing.T) {
	s := newStatPSUtil()
	assert.Nil(t, s.Value(time.Second))
	s.Start()
	defer s.Stop()
	_, ok := s.Value(time.Second).(StatPSUtilValue)
	assert.True(t, ok)
}
