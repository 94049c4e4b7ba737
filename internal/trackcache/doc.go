// Package trackcache fronts the track metadata log with an eviction-aware
// in-memory cache.
//
// Fetch hands out leased checkouts: every track in a checkout counts as one
// outstanding lease until Release returns it. A key is unused exactly when
// it has no outstanding leases, which makes eviction decisions explicit
// instead of inferring liveness from reference counts. Dropping a key only
// forgets it in memory; checkouts and other holders keep their shared cells,
// and the log file is never pruned here.
//
// A single file lock serializes whole-file scans against rewrites so a fetch
// can never observe a half-published log.
package trackcache
