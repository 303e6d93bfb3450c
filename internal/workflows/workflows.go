package workflows

import (
	"strings"
	"time"

	"askfolio/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetIngestStatus = "GetIngestStatus"

const (
	StatusIngesting = "ingesting"
	StatusIngested  = "ingested"
	StatusFailed    = "failed"

	defaultChunkSize    = 1200
	defaultChunkOverlap = 200
)

// WorkflowID is the id used for a document's ingestion, so re-ingesting the
// same URL while a run is open is rejected by Temporal.
func WorkflowID(docID string) string {
	return "ingest-" + sanitizeID(docID)
}

// IngestDocumentWorkflow fetches a PDF, extracts and chunks its text and
// replaces every stored chunk of the document. A document with no usable text
// ends as "failed" without a workflow error.
func IngestDocumentWorkflow(ctx workflow.Context, input IngestDocumentInput) (string, error) {
	status := IngestStatus{
		URL:         input.URL,
		CurrentStep: "init",
		Status:      StatusIngesting,
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestStatus, func() (IngestStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        20 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{activities.ErrTypeUnusableDocument},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	status.CurrentStep = "fetch_pdf"
	status.Steps[status.CurrentStep] = "processing"
	var fetchOut activities.FetchPDFOutput
	if err := workflow.ExecuteActivity(ctx, "FetchPDFActivity", activities.FetchPDFInput{URL: input.URL}).Get(ctx, &fetchOut); err != nil {
		return "", err
	}
	status.DocID = fetchOut.DocID
	status.Steps[status.CurrentStep] = "done"
	defer func() {
		dctx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		_ = workflow.ExecuteActivity(dctx, "CleanupStagedActivity", activities.CleanupStagedInput{Path: fetchOut.Path}).Get(dctx, nil)
	}()

	status.CurrentStep = "extract_text"
	status.Steps[status.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{Path: fetchOut.Path}).Get(ctx, &textOut); err != nil {
		if isUnusableDocumentError(err) {
			status.Status = StatusFailed
			status.FailReason = "no extractable text found (OCR not enabled)"
			status.Steps[status.CurrentStep] = "failed"
			logger.Warn("document has no usable text", "url", input.URL, "error", err)
			return status.Status, nil
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "chunk_text"
	status.Steps[status.CurrentStep] = "processing"
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{
		DocID:        fetchOut.DocID,
		Title:        titleOrDefault(input.Title, input.URL),
		URL:          input.URL,
		Topic:        input.Topic,
		Text:         textOut.Text,
		ChunkSize:    intOrDefault(input.ChunkSize, defaultChunkSize),
		ChunkOverlap: intOrDefault(input.ChunkOverlap, defaultChunkOverlap),
	}).Get(ctx, &chunkOut); err != nil {
		return "", err
	}
	status.Chunks = len(chunkOut.Chunks)
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "replace_chunks"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "ReplaceChunksActivity", activities.ReplaceChunksInput{DocID: fetchOut.DocID, Chunks: chunkOut.Chunks}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "done"
	status.Status = StatusIngested
	logger.Info("document ingested", "doc_id", fetchOut.DocID, "chunks", status.Chunks)
	return status.Status, nil
}

func isUnusableDocumentError(err error) bool {
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "no extractable text") || strings.Contains(e, "not a pdf")
}

func titleOrDefault(title, url string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if i := strings.LastIndex(url, "/"); i >= 0 && i < len(url)-1 {
		return url[i+1:]
	}
	return url
}

func intOrDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
