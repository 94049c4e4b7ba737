// Package handles maps track ids to their cached media artifacts. Each
// track owns at most one thumbnail blob id, one audio blob id, and an
// optional precomputed accent color; ids are generated on first use and
// resolve to files under the media directory. The mapping persists as its
// own ndjson log next to the track store.
package handles
