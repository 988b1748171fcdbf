// Package logger builds the service's *slog.Logger and provides attribute
// helpers so that log keys stay consistent across the alert engine, the
// scheduler and the HTTP layer.
//
// New picks a text handler for development and a JSON handler otherwise, and
// wraps it with a decorator that pulls request-scoped values (request id,
// acting user) out of the context on every record.
//
//	log := logger.New(logger.WithEnvironment(cfg.AppEnv, "donoralert"))
//	logger.SetAsDefault(log)
//	log.InfoContext(ctx, "alert sent", logger.AlertID(id), logger.Count(n))
package logger
