package dto

import "time"

// ImportResult reports a completed roster import.
type ImportResult struct {
	Imported int `json:"imported"`
}

// BackupJobResponse is returned after enqueueing a backup.
type BackupJobResponse struct {
	JobID    string `json:"jobId"`
	Filename string `json:"filename"`
	State    string `json:"state"`
}

// BackupFile describes a backup on disk.
type BackupFile struct {
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// DatabaseInfo names the roster database in use.
type DatabaseInfo struct {
	Driver   string `json:"driver"`
	Filename string `json:"filename"`
}
