package astiremux

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stat names
const (
	StatNameDiscardedRate = "astiremux.discarded.rate"
	StatNameForcedRate    = "astiremux.forced.rate"
	StatNameIncomingRate  = "astiremux.incoming.rate"
	StatNamePSUtil        = "astiremux.ps.util"
	StatNameWrittenRate   = "astiremux.written.rate"
)

// EventStat represents a stat
// Stats are emitted as a []EventStat payload, one event per target
type EventStat struct {
	Description string
	Label       string
	Name        string
	Unit        string
	Value       interface{}
}

// Stater computes stats periodically and emits them as events
type Stater struct {
	eh *EventHandler
	m  *sync.Mutex                           // Locks ts
	s  *astikit.Stater
	ts map[*astikit.StatMetadata]interface{} // Targets indexed by stat metadata
}

// NewStater creates a new stater
func NewStater(period time.Duration, eh *EventHandler) (s *Stater) {
	s = &Stater{
		eh: eh,
		m:  &sync.Mutex{},
		ts: make(map[*astikit.StatMetadata]interface{}),
	}
	s.s = astikit.NewStater(astikit.StaterOptions{
		HandleFunc: s.handle,
		Period:     period,
	})
	return
}

// AddStats adds stats whose events will have target as target
func (s *Stater) AddStats(target interface{}, opts ...astikit.StatOptions) {
	s.m.Lock()
	for _, o := range opts {
		s.ts[o.Metadata] = target
	}
	s.m.Unlock()
	s.s.AddStats(opts...)
}

// AddPSUtilStats adds host and process CPU and memory stats
func (s *Stater) AddPSUtilStats() {
	s.AddStats(nil, astikit.StatOptions{
		Handler: newStatPSUtil(),
		Metadata: &astikit.StatMetadata{
			Description: "CPU and memory usage of the host and of the process",
			Label:       "PS util",
			Name:        StatNamePSUtil,
		},
	})
}

// Start starts the stater, it blocks until the context is done
func (s *Stater) Start(ctx context.Context) { s.s.Start(ctx) }

// Stop stops the stater
func (s *Stater) Stop() { s.s.Stop() }

func (s *Stater) handle(stats []astikit.StatValue) {
	// Group by target
	var targets []interface{}
	groups := make(map[interface{}][]EventStat)
	s.m.Lock()
	for _, stat := range stats {
		t, ok := s.ts[stat.StatMetadata]
		if !ok {
			continue
		}
		if _, ok = groups[t]; !ok {
			targets = append(targets, t)
		}
		groups[t] = append(groups[t], EventStat{
			Description: stat.Description,
			Label:       stat.Label,
			Name:        stat.Name,
			Unit:        stat.Unit,
			Value:       stat.Value,
		})
	}
	s.m.Unlock()

	// Emit
	for _, t := range targets {
		s.eh.Emit(Event{
			Name:    EventNameStats,
			Payload: groups[t],
			Target:  t,
		})
	}
}

type statPSUtil struct {
	p       *process.Process
	started uint32
}

func newStatPSUtil() (s *statPSUtil) {
	s = &statPSUtil{}
	s.p, _ = process.NewProcess(int32(os.Getpid()))
	return
}

func (s *statPSUtil) Start() { atomic.StoreUint32(&s.started, 1) }

func (s *statPSUtil) Stop() { atomic.StoreUint32(&s.started, 0) }

// StatPSUtilValue is the value of the StatNamePSUtil stat
type StatPSUtilValue struct {
	Host    StatPSUtilUsage `json:"host"`
	Process StatPSUtilUsage `json:"process"`
}

// StatPSUtilUsage represents a CPU and memory usage
type StatPSUtilUsage struct {
	// In percent
	CPU float64 `json:"cpu"`
	// In bytes
	Memory uint64 `json:"memory"`
}

func (s *statPSUtil) Value(delta time.Duration) interface{} {
	// Not started
	if atomic.LoadUint32(&s.started) == 0 {
		return nil
	}

	// Host
	var v StatPSUtilValue
	if vs, err := cpu.Percent(0, false); err == nil && len(vs) > 0 {
		v.Host.CPU = vs[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		v.Host.Memory = vm.Used
	}

	// Process
	if s.p != nil {
		if p, err := s.p.Percent(0); err == nil {
			v.Process.CPU = p
		}
		if mi, err := s.p.MemoryInfo(); err == nil {
			v.Process.Memory = mi.RSS
		}
	}
	return v
}
