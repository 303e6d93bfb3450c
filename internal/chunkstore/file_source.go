package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"askfolio/internal/models"
	"askfolio/internal/util"
)

// FileSource keeps chunks in a single JSON document shaped like the docs
// endpoint payload. Writes go through util.WriteJSONAtomic.
type FileSource struct {
	path string
	mu   sync.Mutex
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) LoadChunks(ctx context.Context) ([]models.TextUnit, error) {
	_ = ctx
	docs, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make([]models.TextUnit, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Unit())
	}
	return out, nil
}

func (f *FileSource) ReplaceDocument(ctx context.Context, docID string, units []models.TextUnit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.LoadChunks(ctx)
	if err != nil {
		return err
	}
	next := append(withoutDocument(current, docID), units...)
	payload := docsPayload{Docs: make([]models.Doc, 0, len(next))}
	for _, u := range next {
		payload.Docs = append(payload.Docs, models.DocOf(u))
	}
	if err := util.WriteJSONAtomic(f.path, payload); err != nil {
		return fmt.Errorf("write docs file: %w", err)
	}
	return nil
}

func (f *FileSource) read() ([]models.Doc, error) {
	var payload docsPayload
	if err := util.ReadJSON(f.path, &payload); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read docs file: %w", err)
	}
	return payload.Docs, nil
}
