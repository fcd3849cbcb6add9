package astilibav

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/asticode/go-astiav"
	astiremux "github.com/asticode/go-astiremux"
)

// EventLog is the payload of EventNameLog events
type EventLog struct {
	Format string
	Level  astiav.LogLevel
	Msg    string
	Parent string
}

// LogOptions represents log options
type LogOptions struct {
	// Messages matching one of these are not logged
	IgnoredMessages []*regexp.Regexp
	Level           astiav.LogLevel
}

// WithLog forwards libav logs to the event handler and logs them
func WithLog(o LogOptions) astiremux.EventHandlerLogOption {
	return func(h *astiremux.EventHandler, l *astiremux.EventLogger) {
		// Set log level
		astiav.SetLogLevel(o.Level)

		// Set log callback
		astiav.SetLogCallback(func(level astiav.LogLevel, fmt, msg, parent string) {
			// Emit event
			h.Emit(astiremux.Event{
				Name: EventNameLog,
				Payload: EventLog{
					Format: fmt,
					Level:  level,
					Msg:    msg,
					Parent: parent,
				},
			})
		})

		// Handle log
		h.AddForEventName(EventNameLog, logEventHandlerCallback(o, l))
	}
}

type eventLogger interface {
	Debugk(key, msg string)
	Errork(key, msg string)
	Infok(key, msg string)
	Warnk(key, msg string)
}

func logEventHandlerCallback(o LogOptions, l eventLogger) astiremux.EventCallback {
	return func(e astiremux.Event) bool {
		v, ok := e.Payload.(EventLog)
		if !ok {
			return false
		}

		// Sanitize
		format := strings.TrimSpace(v.Format)
		msg := strings.TrimSpace(v.Msg)
		if msg == "" {
			return false
		}

		// Ignore
		for _, r := range o.IgnoredMessages {
			if r.MatchString(msg) {
				return false
			}
		}

		// Add prefix
		format = "astilibav: " + format
		msg = "astilibav: " + msg

		// Add parent
		if strings.Index(v.Parent, "0x") == 0 {
			msg += " (" + v.Parent + ")"
		}

		// Add level
		switch v.Level {
		case astiav.LogLevelDebug, astiav.LogLevelVerbose:
			l.Debugk(format, msg)
		case astiav.LogLevelInfo:
			l.Infok(format, msg)
		case astiav.LogLevelError, astiav.LogLevelFatal, astiav.LogLevelPanic:
			if v.Level == astiav.LogLevelFatal {
				msg = "FATAL! " + msg
			} else if v.Level == astiav.LogLevelPanic {
				msg = "PANIC! " + msg
			}
			l.Errork(format, msg)
		case astiav.LogLevelWarning:
			l.Warnk(format, msg)
		}
		return false
	}
}

var logLevels = map[string]astiav.LogLevel{
	"debug":   astiav.LogLevelDebug,
	"error":   astiav.LogLevelError,
	"fatal":   astiav.LogLevelFatal,
	"info":    astiav.LogLevelInfo,
	"panic":   astiav.LogLevelPanic,
	"quiet":   astiav.LogLevelQuiet,
	"verbose": astiav.LogLevelVerbose,
	"warning": astiav.LogLevelWarning,
}

// ParseLogLevel parses log levels as you would use them in ffmpeg's -loglevel
func ParseLogLevel(s string) (astiav.LogLevel, error) {
	l, ok := logLevels[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("astilibav: invalid log level %q", s)
	}
	return l, nil
}
