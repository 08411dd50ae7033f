package dto

type DocumentResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	MediaType   string `json:"media_type"`
	FileSize    int64  `json:"file_size"`
	ContentHash string `json:"content_hash"`
	CreatedAt   string `json:"created_at"`
	// Duplicate is true when the upload matched an existing document
	// byte-for-byte and no new content was ingested.
	Duplicate bool `json:"duplicate,omitempty"`
}

type ChunkResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Seq        int    `json:"seq"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

type ListChunksResponse struct {
	DocumentID string          `json:"document_id"`
	Chunks     []ChunkResponse `json:"chunks"`
	Total      int             `json:"total"`
}
