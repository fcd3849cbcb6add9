package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	astiremux "github.com/asticode/go-astiremux"
	astilibav "github.com/asticode/go-astiremux/libav"
	"github.com/asticode/go-astikit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Flags
var (
	configPath   = flag.String("c", "", "the config path")
	inputDict    = flag.String("id", "", "the input options, such as \"rw_timeout=5000000\"")
	inputFormat  = flag.String("if", "", "the input format, such as \"flv\" or \"v4l2\"")
	inputURL     = flag.String("i", "", "the input url")
	outputDict   = flag.String("od", "", "the output options")
	outputFormat = flag.String("of", "", "the output format, such as \"mpegts\" or \"flv\"")
	outputURL    = flag.String("o", "", "the output url")
	restart      = flag.Bool("r", false, "if true, the session is restarted when an error occurs")
	serverAddr   = flag.String("s", "", "the server addr, such as \"127.0.0.1:4000\"")
	verbose      = flag.Bool("v", false, "if true, input streams are logged once the input is opened")
)

func main() {
	// Parse flags
	flag.Parse()

	// Create logger
	l := log.New(log.Writer(), log.Prefix(), log.Flags())

	// Create configuration
	c, err := astiremux.LoadConfiguration(*configPath)
	if err != nil {
		l.Fatal(fmt.Errorf("main: loading configuration failed: %w", err))
	}
	c = c.Merge(astiremux.Configuration{
		Input: astiremux.ConfigurationStream{
			Dict:   *inputDict,
			Format: *inputFormat,
			URL:    *inputURL,
		},
		Log: astiremux.ConfigurationLog{Verbose: *verbose},
		Output: astiremux.ConfigurationStream{
			Dict:   *outputDict,
			Format: *outputFormat,
			URL:    *outputURL,
		},
		Server:  astiremux.ConfigurationServer{Addr: *serverAddr},
		Session: astiremux.ConfigurationSession{Restart: *restart},
	})

	// Get libav log level
	lvl, err := astilibav.ParseLogLevel(c.Log.LibavLevel)
	if err != nil {
		l.Fatal(fmt.Errorf("main: parsing libav log level failed: %w", err))
	}

	// Setup libav
	astilibav.Setup()

	// Create worker
	w := astikit.NewWorker(astikit.WorkerOptions{Logger: l})

	// Create event handler
	eh := astiremux.NewEventHandler()

	// Log event handler
	defer eh.Log(l, astiremux.WithMessageMerging(c.Log.MessageMergingPeriod.Duration), astilibav.WithLog(astilibav.LogOptions{Level: lvl})).Start(w.Context()).Close()

	// Create metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := astiremux.NewMetrics(reg)

	// Create stater
	s := astiremux.NewStater(c.Stats.Period.Duration, eh)
	s.AddPSUtilStats()

	// Create session
	o := c.SessionOptions()
	o.EventHandler = eh
	o.Logger = l
	o.Metrics = m
	o.Stater = s
	ss, err := astiremux.NewSession(astilibav.NewDriver(), o)
	if err != nil {
		l.Fatal(fmt.Errorf("main: creating session failed: %w", err))
	}

	// Create server
	if c.Server.Addr != "" {
		srv := astiremux.NewServer(astiremux.ServerOptions{
			Gatherer: reg,
			Logger:   l,
		})
		srv.EventHandlerAdapter(eh)
		srv.SetSession(ss)
		serve(w, l, c.Server.Addr, srv.Handler())
	}

	// Handle signals
	w.HandleSignals()

	// Start stater
	go s.Start(w.Context())
	defer s.Stop()

	// Run session
	t := w.NewTask()
	go func() {
		defer t.Done()
		defer w.Stop()
		if err := ss.Run(w.Context()); err != nil {
			l.Println(fmt.Errorf("main: running session failed: %w", err))
		}
	}()

	// Wait
	w.Wait()
}

func serve(w *astikit.Worker, l astikit.StdLogger, addr string, h http.Handler) {
	// Create server
	s := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	// Serve
	t := w.NewTask()
	go func() {
		defer t.Done()
		l.Printf("main: serving on %s", addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Print(fmt.Errorf("main: serving on %s failed: %w", addr, err))
		}
	}()

	// Shutdown once the worker is stopped
	go func() {
		<-w.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			l.Print(fmt.Errorf("main: shutting down server failed: %w", err))
		}
	}()
}
