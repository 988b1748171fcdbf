// Package mongo connects to MongoDB using the v2 driver. It backs the
// optional document-store donor directory.
package mongo
