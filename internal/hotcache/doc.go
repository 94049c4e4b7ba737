// Package hotcache buffers records from a cold store in memory.
//
// Each cached record lives in a Shared cell so the cache map and any number
// of external holders (UI rows, playback handles) reference the same value
// with independent lifetimes. The cache itself never writes to the cold
// store: loads are explicit (ReadMissing), results are folded back by the
// caller (Push), and eviction (DropFromCache) touches memory only.
package hotcache
