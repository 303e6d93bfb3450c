package activities

import "askfolio/internal/models"

type FetchPDFInput struct {
	URL string `json:"url"`
}

type FetchPDFOutput struct {
	DocID  string `json:"doc_id"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

type ExtractTextInput struct {
	Path string `json:"path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type ChunkTextInput struct {
	DocID        string `json:"doc_id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Topic        string `json:"topic"`
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type ChunkTextOutput struct {
	Chunks []models.TextUnit `json:"chunks"`
}

type ReplaceChunksInput struct {
	DocID  string            `json:"doc_id"`
	Chunks []models.TextUnit `json:"chunks"`
}

type CleanupStagedInput struct {
	Path string `json:"path"`
}
