package jwt

import "time"

type Config struct {
	Secret string        `env:"JWT_SECRET,required"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"donoralert"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// NewFromConfig creates a Service from cfg. Zero issuer and TTL keep defaults.
func NewFromConfig(cfg Config, opts ...Option) (*Service, error) {
	configOpts := make([]Option, 0, 2+len(opts))
	if cfg.Issuer != "" {
		configOpts = append(configOpts, WithIssuer(cfg.Issuer))
	}
	if cfg.TTL > 0 {
		configOpts = append(configOpts, WithTTL(cfg.TTL))
	}
	return New([]byte(cfg.Secret), append(configOpts, opts...)...)
}
