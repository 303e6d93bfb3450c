package storage

import (
	"context"
	"fmt"
	"strings"

	"askfolio/internal/models"
)

// ChunkRepo persists ingested PDF chunks. It satisfies chunkstore.Source and
// chunkstore.Writer.
type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceDocument swaps every chunk of docID for units in one transaction.
func (r *ChunkRepo) ReplaceDocument(ctx context.Context, docID string, units []models.TextUnit) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx replace chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM pdf_chunks WHERE doc_id=$1`, docID); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", docID, err)
	}
	for _, u := range units {
		if !strings.HasPrefix(u.ID, docID+"-") {
			return fmt.Errorf("chunk %s does not belong to document %s", u.ID, docID)
		}
		topic := string(u.TopicTag)
		if topic == "" {
			topic = string(models.TopicAny)
		}
		_, err := tx.Exec(ctx, `
INSERT INTO pdf_chunks (chunk_id, doc_id, title, text, page, url, topic)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, docID, u.Title, u.Body, u.Page, u.SourceURL, topic,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", u.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) LoadChunks(ctx context.Context) ([]models.TextUnit, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT chunk_id, title, text, page, url, topic
FROM pdf_chunks
ORDER BY doc_id ASC, page ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()
	out := make([]models.TextUnit, 0, 64)
	for rows.Next() {
		u := models.TextUnit{Kind: models.KindPDF}
		var topic string
		if err := rows.Scan(&u.ID, &u.Title, &u.Body, &u.Page, &u.SourceURL, &topic); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		u.TopicTag = models.Topic(topic)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
