package txm

import "time"

const (
	DefaultMaxRetries        = 2
	DefaultRetryDelay        = 5 * time.Second
	DefaultConfirmations     = 1
	DefaultBroadcastChanSize = 100
)

type Config struct {
	// MaxRetries bounds the number of full submission attempts per Submit call.
	MaxRetries uint64
	// RetryDelay is the base backoff; the sleep before attempt k+1 is
	// RetryDelay * (k+1).
	RetryDelay time.Duration
	// Confirmations is the block depth required before a transaction is
	// considered final.
	Confirmations     uint64
	BroadcastChanSize uint
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Confirmations == 0 {
		c.Confirmations = DefaultConfirmations
	}
	if c.BroadcastChanSize == 0 {
		c.BroadcastChanSize = DefaultBroadcastChanSize
	}
	return c
}
