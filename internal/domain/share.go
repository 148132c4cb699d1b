package domain

import "time"

// ShareFile describes a file from the local share directory that has been
// staged for download behind a time-limited link.
type ShareFile struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	DownloadLink string    `json:"download_link"`
	StagedAt     time.Time `json:"staged_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
