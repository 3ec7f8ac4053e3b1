package monitor

import "time"

// Config holds the tunables of a Monitor.
type Config struct {
	// PollInterval is the fixed delay between poll ticks
	PollInterval time.Duration

	// RequestTimeout bounds each request made to the status service
	RequestTimeout time.Duration

	// MaxTransportErrors is the number of consecutive failed requests after
	// which the monitor gives up and fails
	MaxTransportErrors int

	// MaxStatusLength is the rune length the status text is truncated to
	MaxStatusLength int
}

// DefaultConfig returns a Config with the standard polling behavior.
func DefaultConfig() Config {
	return Config{
		PollInterval:       2000 * time.Millisecond,
		RequestTimeout:     30 * time.Second,
		MaxTransportErrors: 15,
		MaxStatusLength:    70,
	}
}

// withDefaults fills zero or negative values from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.MaxTransportErrors <= 0 {
		c.MaxTransportErrors = def.MaxTransportErrors
	}
	if c.MaxStatusLength <= 0 {
		c.MaxStatusLength = def.MaxStatusLength
	}
	return c
}
