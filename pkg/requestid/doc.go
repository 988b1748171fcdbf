// Package requestid tags every HTTP request with an identifier, taken from
// the X-Request-ID header when it is well formed and generated otherwise.
// The ID is echoed in the response, stored in the request context, and can
// be attached to log records and audit events through the extractors.
package requestid
