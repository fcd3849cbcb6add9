package astiremux

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Configuration represents a remuxer configuration
type Configuration struct {
	Input   ConfigurationStream  `toml:"input"`
	Log     ConfigurationLog     `toml:"log"`
	Output  ConfigurationStream  `toml:"output"`
	Server  ConfigurationServer  `toml:"server"`
	Session ConfigurationSession `toml:"session"`
	Stats   ConfigurationStats   `toml:"stats"`
}

// ConfigurationStream represents an input or output configuration
type ConfigurationStream struct {
	// String content of the options as you would use in ffmpeg
	Dict   string `toml:"dict"`
	Format string `toml:"format"`
	URL    string `toml:"url"`
}

// ConfigurationLog represents a log configuration
type ConfigurationLog struct {
	// Libav log level such as "error", "warning", "info" or "debug"
	LibavLevel           string   `toml:"libav_level"`
	MessageMergingPeriod Duration `toml:"message_merging_period"`
	Verbose              bool     `toml:"verbose"`
}

// ConfigurationServer represents a server configuration
// The server is disabled when Addr is empty
type ConfigurationServer struct {
	Addr string `toml:"addr"`
}

// ConfigurationSession represents a session configuration
type ConfigurationSession struct {
	MaxRestarts  int      `toml:"max_restarts"`
	Restart      bool     `toml:"restart"`
	RestartDelay Duration `toml:"restart_delay"`
}

// ConfigurationStats represents a stats configuration
type ConfigurationStats struct {
	Period Duration `toml:"period"`
}

// Duration is a time.Duration that can be decoded from strings such as "1s"
type Duration struct {
	time.Duration
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (d *Duration) UnmarshalText(b []byte) (err error) {
	if d.Duration, err = time.ParseDuration(string(b)); err != nil {
		err = fmt.Errorf("astiremux: parsing duration %s failed: %w", b, err)
		return
	}
	return
}

// MarshalText implements the encoding.TextMarshaler interface
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfiguration returns the default configuration
func DefaultConfiguration() Configuration {
	return Configuration{
		Log: ConfigurationLog{
			LibavLevel:           "error",
			MessageMergingPeriod: Duration{Duration: 10 * time.Second},
		},
		Session: ConfigurationSession{
			RestartDelay: Duration{Duration: time.Second},
		},
		Stats: ConfigurationStats{
			Period: Duration{Duration: 5 * time.Second},
		},
	}
}

// LoadConfiguration decodes the TOML file on top of the default configuration
// An empty path returns the default configuration
func LoadConfiguration(path string) (c Configuration, err error) {
	// Default
	c = DefaultConfiguration()

	// No path
	if path == "" {
		return
	}

	// Decode
	if _, err = toml.DecodeFile(path, &c); err != nil {
		err = fmt.Errorf("astiremux: decoding %s failed: %w", path, err)
		return
	}
	return
}

// Merge overrides the configuration with the non-zero values of o
func (c Configuration) Merge(o Configuration) Configuration {
	mergeStream(&c.Input, o.Input)
	mergeStream(&c.Output, o.Output)
	if o.Log.LibavLevel != "" {
		c.Log.LibavLevel = o.Log.LibavLevel
	}
	if o.Log.MessageMergingPeriod.Duration > 0 {
		c.Log.MessageMergingPeriod = o.Log.MessageMergingPeriod
	}
	if o.Log.Verbose {
		c.Log.Verbose = true
	}
	if o.Server.Addr != "" {
		c.Server.Addr = o.Server.Addr
	}
	if o.Session.MaxRestarts > 0 {
		c.Session.MaxRestarts = o.Session.MaxRestarts
	}
	if o.Session.Restart {
		c.Session.Restart = true
	}
	if o.Session.RestartDelay.Duration > 0 {
		c.Session.RestartDelay = o.Session.RestartDelay
	}
	if o.Stats.Period.Duration > 0 {
		c.Stats.Period = o.Stats.Period
	}
	return c
}

func mergeStream(c *ConfigurationStream, o ConfigurationStream) {
	if o.Dict != "" {
		c.Dict = o.Dict
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.URL != "" {
		c.URL = o.URL
	}
}

// SessionOptions returns the session options described by the configuration
func (c Configuration) SessionOptions() SessionOptions {
	return SessionOptions{
		Restart: SessionRestartOptions{
			Delay:   c.Session.RestartDelay.Duration,
			Enabled: c.Session.Restart,
			Max:     c.Session.MaxRestarts,
		},
		Sink: SinkOptions{
			Dict:       c.Output.Dict,
			FormatName: c.Output.Format,
			URL:        c.Output.URL,
		},
		Source: SourceOptions{
			Dict:       c.Input.Dict,
			FormatName: c.Input.Format,
			URL:        c.Input.URL,
			Verbose:    c.Log.Verbose,
		},
	}
}
