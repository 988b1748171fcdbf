// Package config loads typed configuration from the process environment.
//
// Values come from environment variables, optionally seeded from a .env file
// through github.com/joho/godotenv, and are decoded into structs annotated
// with github.com/caarlos0/env tags. Each struct type is parsed once per
// process and served from a cache afterwards; Reset clears the cache in tests.
//
//	type SchedulerConfig struct {
//		ScanInterval time.Duration `env:"SCHEDULER_SCAN_INTERVAL" envDefault:"1m"`
//	}
//
//	var cfg SchedulerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
