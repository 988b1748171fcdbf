// Package redis connects to Redis with go-redis/v9. The service uses it for
// the alert event channels and the scheduler's cross-instance scan lock.
package redis
