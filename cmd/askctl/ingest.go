package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"askfolio/internal/app"
	"askfolio/internal/ingest"
	"askfolio/internal/models"

	"github.com/spf13/cobra"
)

var (
	ingestTitle string
	ingestTopic string
	ingestURL   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf | url]",
	Short: "Ingest a PDF into the docs backend without Temporal",
	Long: `Extracts, chunks and stores a PDF in the configured docs backend
(ASKFOLIO_DOCS_BACKEND=file or postgres). Re-ingesting the same document
replaces its earlier chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestTopic, "topic", "", "topic tag: driving, web, about or all")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "public url cited for a local file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	topic := models.TopicAny
	if ingestTopic != "" {
		t, ok := models.ParseTopic(ingestTopic)
		if !ok {
			return fmt.Errorf("unknown topic %q", ingestTopic)
		}
		topic = t
	}

	_, writer, db, err := app.Backends(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	if writer == nil {
		return errors.New("docs backend is read-only, set ASKFOLIO_DOCS_BACKEND to file or postgres")
	}

	fetcher := ingest.NewFetcher(&http.Client{Timeout: 60 * time.Second}, 3, time.Second)
	p := ingest.NewPipeline(fetcher, writer, cfg.ChunkSize, cfg.ChunkOverlap, logger)

	target := args[0]
	title := ingestTitle
	if title == "" {
		title = filepath.Base(target)
	}
	var res ingest.Result
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		res, err = p.IngestURL(cmd.Context(), target, title, topic)
	} else {
		var b []byte
		b, err = os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("read %s: %w", target, err)
		}
		cite := ingestURL
		if cite == "" {
			abs, _ := filepath.Abs(target)
			cite = "file://" + abs
		}
		res, err = p.IngestBytes(cmd.Context(), cite, title, topic, b)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Ingested %s as %s (%d chunks)\n", target, res.DocID, res.Chunks)
	return nil
}
