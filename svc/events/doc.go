// Package events fans alert lifecycle milestones out to the audit trail and
// to Redis pub/sub, and pushes stored notifications to per-user channels.
package events
