package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTrackID is the standardized structured logging key for track identifiers.
	FieldTrackID = "track_id"
	// FieldStore is the standardized structured logging key for backing store paths.
	FieldStore = "store"
	// FieldBlobID is the standardized structured logging key for blob identifiers.
	FieldBlobID = "blob_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps on warnings.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// TrackID tags a log line with the owning track identifier.
func TrackID(id string) Attr { return String(FieldTrackID, id) }

// Store tags a log line with the backing store path it concerns.
func Store(path string) Attr { return String(FieldStore, path) }
