package astiremux

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astiws"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the session status, prometheus metrics and events through HTTP and websocket
type Server struct {
	g  prometheus.Gatherer
	l  astikit.SeverityLogger
	m  *sync.Mutex // Locks s
	s  *Session
	ws *astiws.Manager
}

// ServerOptions represents server options
type ServerOptions struct {
	// Metrics are not served if nil
	Gatherer prometheus.Gatherer
	Logger   astikit.StdLogger
}

// NewServer creates a new server
func NewServer(o ServerOptions) *Server {
	return &Server{
		g:  o.Gatherer,
		l:  astikit.AdaptStdLogger(o.Logger),
		m:  &sync.Mutex{},
		ws: astiws.NewManager(astiws.ManagerConfiguration{MaxMessageSize: 8192}, o.Logger),
	}
}

// SetSession sets the session whose status is served
func (s *Server) SetSession(ss *Session) {
	s.m.Lock()
	defer s.m.Unlock()
	s.s = ss
}

// Handler returns the server handler
func (s *Server) Handler() http.Handler {
	// Create router
	r := httprouter.New()

	// Add routes
	r.Handler(http.MethodGet, "/ok", s.serveOK())
	r.Handler(http.MethodGet, "/status", s.serveStatus())
	r.Handler(http.MethodGet, "/websocket", s.serveWebSocket())
	if s.g != nil {
		r.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(s.g, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) serveOK() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {})
}

func (s *Server) serveStatus() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		// Get session
		s.m.Lock()
		ss := s.s
		s.m.Unlock()

		// No session
		if ss == nil {
			rw.WriteHeader(http.StatusNoContent)
			return
		}

		// Write
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(ss.Status()); err != nil {
			s.l.Error(fmt.Errorf("astiremux: writing status failed: %w", err))
			return
		}
	})
}

func (s *Server) serveWebSocket() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := s.ws.ServeHTTP(rw, r, s.adaptWebSocketClient); err != nil {
			var e *websocket.CloseError
			if ok := errors.As(err, &e); !ok ||
				(e.Code != websocket.CloseNoStatusReceived && e.Code != websocket.CloseNormalClosure) {
				s.l.Error(fmt.Errorf("astiremux: handling websocket failed: %w", err))
			}
			return
		}
	})
}

func (s *Server) adaptWebSocketClient(c *astiws.Client) (err error) {
	// Register client
	s.ws.AutoRegisterClient(c)

	// Add listeners
	c.AddListener(astiws.EventNameDisconnect, s.webSocketDisconnected)
	c.AddListener("ping", s.webSocketPing)
	return
}

func (s *Server) webSocketDisconnected(c *astiws.Client, eventName string, payload json.RawMessage) error {
	s.ws.UnregisterClient(c)
	return nil
}

func (s *Server) webSocketPing(c *astiws.Client, eventName string, payload json.RawMessage) error {
	if err := c.ExtendConnection(); err != nil {
		s.l.Error(fmt.Errorf("astiremux: extending ws connection failed: %w", err))
	}
	return nil
}

func (s *Server) sendWebSocket(eventName string, payload interface{}) {
	// Loop through clients
	s.ws.Loop(func(_ interface{}, c *astiws.Client) {
		if err := c.Write(eventName, payload); err != nil {
			s.l.Error(fmt.Errorf("astiremux: writing event %s to websocket client %p failed: %w", eventName, c, err))
			return
		}
	})
}

// EventHandlerAdapter forwards events to websocket clients
func (s *Server) EventHandlerAdapter(eh *EventHandler) {
	// Register catch all handler
	eh.AddForAll(func(e Event) bool {
		if p, ok := newServerEventPayload(e); ok {
			s.sendWebSocket(string(e.Name), p)
		}
		return false
	})
}

func newServerEventPayload(e Event) (p interface{}, ok bool) {
	switch e.Name {
	case EventNameDtsForced:
		v := e.Payload.(EventDtsForced)
		p = ServerDtsForced{
			InputDts:  v.InputDts,
			OutputDts: v.OutputDts,
		}
	case EventNameError:
		p = astikit.ErrorCause(e.Payload.(error)).Error()
	case EventNameRemuxerStarted, EventNameRemuxerStopped:
		p = e.Target.(*Remuxer).Status()
	case EventNameSessionRestarted, EventNameSessionStarted, EventNameSessionStopped:
		p = e.Target.(*Session).Status()
	case EventNameStats:
		p = newServerStats(e)
	default:
		return
	}
	ok = true
	return
}

// ServerDtsForced represents a forced dts sent to websocket clients
type ServerDtsForced struct {
	InputDts  Timestamp `json:"input_dts"`
	OutputDts Timestamp `json:"output_dts"`
}

// ServerStat represents a stat sent to websocket clients
type ServerStat struct {
	Description string      `json:"description"`
	Label       string      `json:"label"`
	Name        string      `json:"name"`
	Unit        string      `json:"unit"`
	Value       interface{} `json:"value"`
}

// ServerStats represents the stats of a target sent to websocket clients
type ServerStats struct {
	// Empty for process wide stats
	Name  string       `json:"name"`
	Stats []ServerStat `json:"stats"`
}

func newServerStats(e Event) (ss ServerStats) {
	switch v := e.Target.(type) {
	case *Remuxer:
		ss.Name = v.src.URL() + " => " + v.snk.URL()
	case *Session:
		ss.Name = v.name()
	}
	ss.Stats = []ServerStat{}
	for _, s := range e.Payload.([]EventStat) {
		ss.Stats = append(ss.Stats, ServerStat{
			Description: s.Description,
			Label:       s.Label,
			Name:        s.Name,
			Unit:        s.Unit,
			Value:       s.Value,
		})
	}
	return
}
