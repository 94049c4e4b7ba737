// Package logtail reads the application log back for the CLI, either the
// most recent lines or a polling follow of appended ones.
package logtail
