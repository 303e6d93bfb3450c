package workflows

type IngestDocumentInput struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Topic        string `json:"topic,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}

type IngestStatus struct {
	URL         string            `json:"url"`
	DocID       string            `json:"doc_id,omitempty"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Chunks      int               `json:"chunks"`
	Steps       map[string]string `json:"steps"`
}
