package main

import (
	"time"

	"github.com/dmitrymomot/donoralert/pkg/httpserver"
	"github.com/dmitrymomot/donoralert/pkg/jwt"
	"github.com/dmitrymomot/donoralert/pkg/mongo"
	"github.com/dmitrymomot/donoralert/pkg/pg"
	"github.com/dmitrymomot/donoralert/pkg/redis"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/api"
)

const (
	directoryPostgres = "postgres"
	directoryMongo    = "mongo"
)

// Config is the full runtime configuration, read from the environment.
type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	Directory string `env:"DIRECTORY_BACKEND" envDefault:"postgres"`

	Postgres pg.Config
	Redis    redis.Config
	Mongo    mongo.Config
	Alert    alert.Config
	API      api.Config
	JWT      jwt.Config
	HTTP     httpserver.Config
	Jobs     JobsConfig
	Audit    AuditConfig
}

type JobsConfig struct {
	CheckInterval time.Duration `env:"SCHEDULER_CHECK_INTERVAL" envDefault:"10s"`
	ScanInterval  time.Duration `env:"SCHEDULER_SCAN_INTERVAL" envDefault:"1m"`
	// LockTTL bounds how long a crashed instance can keep others off a job.
	LockTTL       time.Duration `env:"SCHEDULER_LOCK_TTL" envDefault:"1m"`
	Retention     time.Duration `env:"NOTIFICATION_RETENTION" envDefault:"720h"`
	CleanupHour   int           `env:"NOTIFICATION_CLEANUP_HOUR" envDefault:"3"`
	CleanupMinute int           `env:"NOTIFICATION_CLEANUP_MINUTE" envDefault:"0"`
}

type AuditConfig struct {
	BufferSize   int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	BatchSize    int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
	BatchTimeout time.Duration `env:"AUDIT_BATCH_TIMEOUT" envDefault:"1s"`
}
