// Package ndjson implements the append-and-rewrite log that backs every
// persistent store in groove.
//
// A store is a single file holding one JSON object per line. Reads scan the
// whole file and keep both the raw line and the decoded record, so a later
// rewrite can copy surviving lines byte for byte. Writes build the next
// generation of the file beside the original and publish it with a single
// rename, so concurrent readers observe either the old file or the new one
// but never a torn state. Cross-process exclusion uses a sidecar lock file
// because the rename replaces the data file's inode, which would silently
// detach any lock held on the data file itself.
//
// Lines that fail to decode are skipped on read and dropped by the next
// rewrite. A missing file reads as an error carrying fs.ErrNotExist so
// callers can distinguish "no store yet" from real I/O failures.
package ndjson
