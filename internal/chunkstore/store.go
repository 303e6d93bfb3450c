// Package chunkstore exposes the retrievable text units: the deployed knowledge
// base plus whatever PDF chunks the ingestion path has persisted.
package chunkstore

import (
	"context"
	"strings"
	"sync"

	"askfolio/internal/kb"
	"askfolio/internal/models"

	"go.uber.org/zap"
)

// Source yields the dynamic, ingested portion of the corpus.
type Source interface {
	LoadChunks(ctx context.Context) ([]models.TextUnit, error)
}

// Writer persists ingested chunks. ReplaceDocument drops every chunk whose id
// starts with docID+"-" before storing units.
type Writer interface {
	ReplaceDocument(ctx context.Context, docID string, units []models.TextUnit) error
}

type Store struct {
	kb     *kb.KB
	source Source
	logger *zap.Logger
}

// New wires a store. source may be nil, in which case only the KB is served.
func New(k *kb.KB, source Source, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kb: k, source: source, logger: logger}
}

func (s *Store) KB() *kb.KB {
	return s.kb
}

// LoadAll returns KB units followed by the dynamic chunks, read fresh on every
// call. A dynamic read failure degrades to KB-only rather than failing.
func (s *Store) LoadAll(ctx context.Context) []models.TextUnit {
	units := s.kb.Units()
	if s.source == nil {
		return units
	}
	dyn, err := s.source.LoadChunks(ctx)
	if err != nil {
		s.logger.Warn("dynamic chunk source unavailable, serving kb only", zap.Error(err))
		return units
	}
	for _, u := range dyn {
		u.Kind = models.KindPDF
		u.TopicTag = models.UnitTag(string(u.TopicTag))
		units = append(units, u)
	}
	return units
}

// Memory is an in-process Source and Writer, used by tests and the local CLI.
type Memory struct {
	mu    sync.RWMutex
	units []models.TextUnit
}

func NewMemory(units ...models.TextUnit) *Memory {
	return &Memory{units: append([]models.TextUnit(nil), units...)}
}

func (m *Memory) LoadChunks(ctx context.Context) ([]models.TextUnit, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.TextUnit(nil), m.units...), nil
}

func (m *Memory) ReplaceDocument(ctx context.Context, docID string, units []models.TextUnit) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units = append(withoutDocument(m.units, docID), units...)
	return nil
}

func withoutDocument(units []models.TextUnit, docID string) []models.TextUnit {
	prefix := docID + "-"
	out := make([]models.TextUnit, 0, len(units))
	for _, u := range units {
		if strings.HasPrefix(u.ID, prefix) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Overview returns the canonical KB unit for a scoped topic.
func (s *Store) Overview(t models.Topic) (models.TextUnit, bool) {
	return s.kb.Overview(t)
}
