package api

import "time"

type Config struct {
	DefaultPageSize int           `env:"API_DEFAULT_PAGE_SIZE" envDefault:"50"`
	MaxPageSize     int           `env:"API_MAX_PAGE_SIZE" envDefault:"200"`
	MaxBodyBytes    int64         `env:"API_MAX_BODY_BYTES" envDefault:"1048576"`
	HealthTimeout   time.Duration `env:"API_HEALTH_TIMEOUT" envDefault:"2s"`
}

func (c Config) withDefaults() Config {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 50
	}
	if c.MaxPageSize < c.DefaultPageSize {
		c.MaxPageSize = max(c.DefaultPageSize, 200)
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = 2 * time.Second
	}
	return c
}
