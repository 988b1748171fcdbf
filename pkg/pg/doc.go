// Package pg bootstraps the PostgreSQL layer on top of pgx/v5: a pooled
// connection with startup retries, goose migrations run through the same
// pool, a health check, a transaction helper and error classifiers used by
// the storage code.
package pg
