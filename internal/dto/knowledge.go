package dto

type KnowledgeFileResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type KnowledgeBaseResponse struct {
	VectorStoreID string                  `json:"vectorStoreId"`
	Name          string                  `json:"name"`
	CreatedAt     string                  `json:"createdAt"`
	LastUpdated   string                  `json:"lastUpdated"`
	Files         []KnowledgeFileResponse `json:"files,omitempty"`
}
