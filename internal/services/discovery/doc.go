// Package discovery runs discovery passes over the plants known to a data source.
//
// A pass lists plant ids, fetches each plant's latest snapshot concurrently,
// drops plants that lack readings or a room, scores the rest with the health
// package and groups them into rooms. The result goes through a ChangeCache,
// which decides whether downstream consumers get the new result or a
// "no change" signal carrying the cached one.
//
// A failed listing fails the pass and leaves the cached result in place; a
// failed plant fetch only drops that plant.
//
// Service exposes the pass through Discover and Refresh, query accessors over
// the cached result, an HTTP API (api.go), health endpoints (health.go) and
// Prometheus metrics (metrics.go). Scheduler drives Refresh periodically.
package discovery
