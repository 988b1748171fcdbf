// Package audit records operator-visible events about actions taken by the
// system, such as alerts being created, sent, or failing to fan out.
//
// A Logger builds Event values, fills them from the request context through
// optional extractors and hands them to a pluggable Storage. AsyncWriter
// batches writes for storages that support bulk inserts.
//
// # Usage
//
//	storage := audit.NewMemoryStorage()
//	log := audit.NewLogger(storage, audit.WithUserIDExtractor(userFromCtx))
//
//	_ = log.Log(ctx, "alert.created", audit.WithResource("alert", id.String()))
//	_ = log.LogError(ctx, "alert.fan_out_failed", err, audit.WithMetadata("attempts", 3))
package audit
