package activities

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"askfolio/internal/chunkstore"
	"askfolio/internal/ingest"
	"askfolio/internal/models"
	"askfolio/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

// ErrTypeUnusableDocument marks documents that will never yield chunks, so
// Temporal does not retry them.
const ErrTypeUnusableDocument = "UnusableDocument"

type Activities struct {
	fetcher    *ingest.Fetcher
	writer     chunkstore.Writer
	stagingDir string
	logger     *zap.Logger
}

func New(f *ingest.Fetcher, w chunkstore.Writer, stagingDir string, logger *zap.Logger) *Activities {
	if stagingDir == "" {
		stagingDir = filepath.Join(os.TempDir(), "askfolio-ingest")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{fetcher: f, writer: w, stagingDir: stagingDir, logger: logger}
}

func (a *Activities) FetchPDFActivity(ctx context.Context, in FetchPDFInput) (FetchPDFOutput, error) {
	b, err := a.fetcher.Fetch(ctx, in.URL)
	if errors.Is(err, ingest.ErrUnfetchable) {
		return FetchPDFOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnusableDocument, err)
	}
	if err != nil {
		return FetchPDFOutput{}, err
	}
	if err := util.EnsureDir(a.stagingDir); err != nil {
		return FetchPDFOutput{}, err
	}
	docID := ingest.DocumentID(in.URL)
	path := filepath.Join(a.stagingDir, docID+".pdf")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return FetchPDFOutput{}, fmt.Errorf("stage pdf: %w", err)
	}
	a.logger.Info("pdf fetched", zap.String("url", in.URL), zap.String("doc_id", docID), zap.Int("bytes", len(b)))
	return FetchPDFOutput{DocID: docID, Path: path, SHA256: util.SHA256Hex(b)}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	b, err := os.ReadFile(in.Path)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read staged pdf: %w", err)
	}
	text, err := ingest.ExtractText(b)
	if err != nil {
		if errors.Is(err, util.ErrNoExtractableText) || errors.Is(err, util.ErrNotPDF) {
			return ExtractTextOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnusableDocument, err)
		}
		return ExtractTextOutput{}, err
	}
	return ExtractTextOutput{Text: text}, nil
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	_ = ctx
	topic, ok := models.ParseTopic(in.Topic)
	if !ok {
		topic = models.TopicAny
	}
	units := ingest.Chunk(in.DocID, in.Title, in.URL, topic, in.Text, in.ChunkSize, in.ChunkOverlap)
	return ChunkTextOutput{Chunks: units}, nil
}

func (a *Activities) ReplaceChunksActivity(ctx context.Context, in ReplaceChunksInput) error {
	if err := a.writer.ReplaceDocument(ctx, in.DocID, in.Chunks); err != nil {
		return fmt.Errorf("replace chunks of %s: %w", in.DocID, err)
	}
	a.logger.Info("chunks replaced", zap.String("doc_id", in.DocID), zap.Int("chunks", len(in.Chunks)))
	return nil
}

// CleanupStagedActivity removes the staged file; a missing file is not an error.
func (a *Activities) CleanupStagedActivity(ctx context.Context, in CleanupStagedInput) error {
	_ = ctx
	if err := os.Remove(in.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged pdf: %w", err)
	}
	return nil
}
