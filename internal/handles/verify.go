package handles

import (
	"sort"

	"groove/internal/fileutil"
	"groove/internal/logging"
)

// Kind names the artifact a finding refers to.
type Kind string

const (
	KindThumbnail Kind = "thumbnail"
	KindAudio     Kind = "audio"
)

// Finding describes a stored blob id whose file is missing.
type Finding struct {
	TrackID string `json:"track_id"`
	Kind    Kind   `json:"kind"`
	BlobID  string `json:"blob_id"`
	Path    string `json:"path"`
}

// Verify checks every stored blob id against the filesystem and reports
// ids whose files are gone. With fix set the dangling ids are cleared in
// memory; persisting the repair is the caller's call to Save.
func (s *Store) Verify(fix bool) []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var findings []Finding
	for _, key := range keys {
		item := s.items[key]
		if item.ThumbID != "" {
			path := s.thumbPath(item.ThumbID)
			if !fileutil.Exists(path) {
				findings = append(findings, Finding{
					TrackID: item.TrackID,
					Kind:    KindThumbnail,
					BlobID:  item.ThumbID,
					Path:    path,
				})
				if fix {
					item.ThumbID = ""
				}
			}
		}
		if item.AudioID != "" {
			path := s.audioPath(item.AudioID)
			if !fileutil.Exists(path) {
				findings = append(findings, Finding{
					TrackID: item.TrackID,
					Kind:    KindAudio,
					BlobID:  item.AudioID,
					Path:    path,
				})
				if fix {
					item.AudioID = ""
				}
			}
		}
	}

	if len(findings) > 0 {
		s.logger.Warn("found dangling blob ids",
			logging.Int("count", len(findings)),
			logging.Bool("fixed", fix),
		)
	}
	return findings
}
