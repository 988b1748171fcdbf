package alert

import "time"

// Config tunes sending. Zero values fall back to the defaults below.
type Config struct {
	BatchSize     int           `env:"ALERT_BATCH_SIZE" envDefault:"1000"`
	FanOutRetries int           `env:"ALERT_FANOUT_RETRIES" envDefault:"3"` // extra attempts after the first
	RetryDelay    time.Duration `env:"ALERT_RETRY_DELAY" envDefault:"200ms"`
	DueLimit      int           `env:"ALERT_DUE_LIMIT" envDefault:"100"` // alerts per scheduler pass
}

const (
	DefaultBatchSize  = 1000
	DefaultRetryDelay = 200 * time.Millisecond
	DefaultDueLimit   = 100
)

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FanOutRetries < 0 {
		c.FanOutRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.DueLimit <= 0 {
		c.DueLimit = DefaultDueLimit
	}
	return c
}
