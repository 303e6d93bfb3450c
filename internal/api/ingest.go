package api

import (
	"context"
	"errors"
	"fmt"

	"askfolio/internal/ingest"
	"askfolio/internal/workflows"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
)

var ErrIngestRunning = errors.New("ingestion already running for this document")

type StartedIngest struct {
	WorkflowID string
	RunID      string
	DocID      string
}

// IngestStarter starts document ingestion out of band.
type IngestStarter interface {
	StartIngest(ctx context.Context, in workflows.IngestDocumentInput) (StartedIngest, error)
}

type TemporalIngest struct {
	client       tclient.Client
	taskQueue    string
	chunkSize    int
	chunkOverlap int
}

func NewTemporalIngest(c tclient.Client, taskQueue string, chunkSize, chunkOverlap int) *TemporalIngest {
	return &TemporalIngest{client: c, taskQueue: taskQueue, chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

func (t *TemporalIngest) StartIngest(ctx context.Context, in workflows.IngestDocumentInput) (StartedIngest, error) {
	if in.ChunkSize <= 0 {
		in.ChunkSize = t.chunkSize
	}
	if in.ChunkOverlap <= 0 {
		in.ChunkOverlap = t.chunkOverlap
	}
	docID := ingest.DocumentID(in.URL)
	run, err := t.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       workflows.WorkflowID(docID),
		TaskQueue:                                t.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.IngestDocumentWorkflow, in)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			return StartedIngest{}, fmt.Errorf("%w: %s", ErrIngestRunning, docID)
		}
		return StartedIngest{}, fmt.Errorf("start ingest workflow: %w", err)
	}
	return StartedIngest{WorkflowID: run.GetID(), RunID: run.GetRunID(), DocID: docID}, nil
}
