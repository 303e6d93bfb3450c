// Package ingest turns PDF documents into retrievable chunks.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"askfolio/internal/chunkstore"
	"askfolio/internal/models"
	"askfolio/internal/util"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// DocumentID is the stable chunk-id prefix for a source document.
func DocumentID(url string) string {
	return util.ShortID(strings.TrimSpace(url))
}

// Chunk splits text into pdf units with ids "<docID>-<n>" and 1-based pages.
func Chunk(docID, title, url string, topic models.Topic, text string, size, overlap int) []models.TextUnit {
	topic = models.UnitTag(string(topic))
	parts := util.ChunkText(text, size, overlap)
	out := make([]models.TextUnit, 0, len(parts))
	for _, part := range parts {
		part = util.SanitizeText(part)
		if part == "" {
			continue
		}
		page := len(out) + 1
		out = append(out, models.TextUnit{
			ID:        fmt.Sprintf("%s-%d", docID, page),
			Kind:      models.KindPDF,
			Title:     title,
			Body:      part,
			TopicTag:  topic,
			Page:      page,
			SourceURL: url,
		})
	}
	return out
}

// ExtractText returns the plain text of a PDF held in memory.
func ExtractText(b []byte) (text string, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(b, " \t\r\n"), []byte("%PDF-")) {
		return "", util.ErrNotPDF
	}
	defer func() {
		// the pdf reader panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text = util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

type Result struct {
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}

// Pipeline runs fetch, extract, chunk and replace in-process. The Temporal
// workflow runs the same steps as separate activities.
type Pipeline struct {
	fetcher      *Fetcher
	writer       chunkstore.Writer
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

func NewPipeline(f *Fetcher, w chunkstore.Writer, chunkSize, chunkOverlap int, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{fetcher: f, writer: w, chunkSize: chunkSize, chunkOverlap: chunkOverlap, logger: logger}
}

func (p *Pipeline) IngestURL(ctx context.Context, url, title string, topic models.Topic) (Result, error) {
	b, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, err
	}
	return p.IngestBytes(ctx, url, title, topic, b)
}

// IngestBytes replaces every stored chunk of the document identified by url.
func (p *Pipeline) IngestBytes(ctx context.Context, url, title string, topic models.Topic, b []byte) (Result, error) {
	text, err := ExtractText(b)
	if err != nil {
		return Result{}, err
	}
	docID := DocumentID(url)
	units := Chunk(docID, title, url, topic, text, p.chunkSize, p.chunkOverlap)
	if err := p.writer.ReplaceDocument(ctx, docID, units); err != nil {
		return Result{}, fmt.Errorf("store chunks: %w", err)
	}
	p.logger.Info("document ingested", zap.String("doc_id", docID), zap.String("url", url), zap.Int("chunks", len(units)))
	return Result{DocID: docID, Chunks: len(units)}, nil
}
