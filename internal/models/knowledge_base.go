package models

import "time"

// KnowledgeBaseHandle points at the single external vector-store resource
// this deployment works against. At most one handle exists at a time;
// replacing it overwrites the previous record.
type KnowledgeBaseHandle struct {
	VectorStoreID string    `json:"vectorStoreId"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// FileStatus mirrors the per-file ingestion status reported by the
// external vector-store API.
type FileStatus string

const (
	FileStatusInProgress FileStatus = "in_progress"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
	FileStatusCancelled  FileStatus = "cancelled"
)

type KnowledgeBaseFile struct {
	ID     string     `json:"id"`
	Status FileStatus `json:"status"`
}
