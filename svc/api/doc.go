// Package api exposes alerts, recipient inboxes and donor profiles over HTTP.
//
// Every route except /health requires a bearer token issued by pkg/jwt.
// Creating and sending alerts and changing another donor's availability
// require the admin role. Responses use a {data, meta, error} JSON envelope.
package api
