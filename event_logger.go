package astiremux

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
)

type logLevel int

const (
	logLevelDebug logLevel = iota
	logLevelInfo
	logLevelWarn
	logLevelError
)

// EventLogger writes event messages and, when message merging is enabled, writes identical
// messages only once per period followed by a summary
type EventLogger struct {
	cancel context.CancelFunc
	is     map[eventLoggerKey]*eventLoggerItem
	l      astikit.SeverityLogger
	m      *sync.Mutex // Locks is
	period time.Duration
}

type eventLoggerKey struct {
	key string
	l   logLevel
}

type eventLoggerItem struct {
	at    time.Time
	count int
	msg   string
}

// WithMessageMerging merges identical messages written during the period
func WithMessageMerging(period time.Duration) EventHandlerLogOption {
	return func(_ *EventHandler, l *EventLogger) {
		l.period = period
	}
}

func newEventLogger(i astikit.StdLogger) *EventLogger {
	return &EventLogger{
		is: make(map[eventLoggerKey]*eventLoggerItem),
		l:  astikit.AdaptStdLogger(i),
		m:  &sync.Mutex{},
	}
}

// Start starts dumping merged messages in the background until the context is done or
// the logger is closed
func (l *EventLogger) Start(ctx context.Context) *EventLogger {
	// Create context
	ctx, l.cancel = context.WithCancel(ctx)

	// Nothing to dump
	if l.period <= 0 {
		return l
	}

	// Dump
	go func() {
		t := time.NewTicker(l.tickPeriod())
		defer t.Stop()
		for {
			select {
			case n := <-t.C:
				l.dump(func(i *eventLoggerItem) bool { return n.Sub(i.at) > l.period })
			case <-ctx.Done():
				return
			}
		}
	}()
	return l
}

func (l *EventLogger) tickPeriod() (p time.Duration) {
	p = l.period / 2
	if p <= 0 {
		p = time.Millisecond
	} else if p > 200*time.Millisecond {
		p = 200 * time.Millisecond
	}
	return
}

// Close stops the logger and dumps all merged messages
func (l *EventLogger) Close() {
	if l.cancel != nil {
		l.cancel()
	}
	l.dump(func(*eventLoggerItem) bool { return true })
}

func (l *EventLogger) dump(fn func(i *eventLoggerItem) bool) {
	l.m.Lock()
	defer l.m.Unlock()
	for k, i := range l.is {
		if !fn(i) {
			continue
		}
		switch {
		case i.count == 1:
			l.write(k.l, "astiremux: pattern repeated once: "+i.msg)
		case i.count > 1:
			l.write(k.l, fmt.Sprintf("astiremux: pattern repeated %d times: %s", i.count, k.key))
		}
		delete(l.is, k)
	}
}

func (l *EventLogger) log(lv logLevel, key, msg string) {
	if l.period > 0 && l.merged(lv, key, msg) {
		return
	}
	l.write(lv, msg)
}

func (l *EventLogger) merged(lv logLevel, key, msg string) bool {
	l.m.Lock()
	defer l.m.Unlock()
	k := eventLoggerKey{key: key, l: lv}
	if i, ok := l.is[k]; ok {
		i.count++
		return true
	}
	l.is[k] = &eventLoggerItem{
		at:  time.Now(),
		msg: msg,
	}
	return false
}

func (l *EventLogger) write(lv logLevel, msg string) {
	switch lv {
	case logLevelDebug:
		l.l.Debug(msg)
	case logLevelError:
		l.l.Error(msg)
	case logLevelWarn:
		l.l.Warn(msg)
	default:
		l.l.Info(msg)
	}
}

// Debugk logs a debug message, merging it with messages sharing the same key
func (l *EventLogger) Debugk(key, msg string) { l.log(logLevelDebug, key, msg) }

// Errorf logs an error message
func (l *EventLogger) Errorf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.log(logLevelError, msg, msg)
}

// Errork logs an error message, merging it with messages sharing the same key
func (l *EventLogger) Errork(key, msg string) { l.log(logLevelError, key, msg) }

// Infof logs an info message
func (l *EventLogger) Infof(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.log(logLevelInfo, msg, msg)
}

// Infok logs an info message, merging it with messages sharing the same key
func (l *EventLogger) Infok(key, msg string) { l.log(logLevelInfo, key, msg) }

// Warnf logs a warning message
func (l *EventLogger) Warnf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.log(logLevelWarn, msg, msg)
}

// Warnk logs a warning message, merging it with messages sharing the same key
func (l *EventLogger) Warnk(key, msg string) { l.log(logLevelWarn, key, msg) }
