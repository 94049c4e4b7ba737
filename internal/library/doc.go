// Package library composes the track cache, the thumbnail and audio blob
// caches, and the handle store over one on-disk layout. Collaborators go
// through the facade: key-window suppliers fetch records, mutation sources
// extend them, and eviction stays explicit via the sweep helpers. Nothing
// outside this package touches the store files directly.
package library
