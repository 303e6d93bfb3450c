package workflows

import (
	"context"
	"errors"
	"testing"

	"askfolio/internal/activities"
	"askfolio/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerIngestActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "FetchPDFActivity", func(context.Context, activities.FetchPDFInput) (activities.FetchPDFOutput, error) {
		return activities.FetchPDFOutput{}, nil
	})
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})
	registerActivityName(env, "ChunkTextActivity", func(context.Context, activities.ChunkTextInput) (activities.ChunkTextOutput, error) {
		return activities.ChunkTextOutput{}, nil
	})
	registerActivityName(env, "ReplaceChunksActivity", func(context.Context, activities.ReplaceChunksInput) error { return nil })
	registerActivityName(env, "CleanupStagedActivity", func(context.Context, activities.CleanupStagedInput) error { return nil })
}

func TestIngestDocumentWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(IngestDocumentWorkflow)
	registerIngestActivities(env)

	chunks := []models.TextUnit{{ID: "doc1-1", Kind: models.KindPDF, Title: "cv.pdf", Body: "chunk", Page: 1}}
	env.OnActivity("FetchPDFActivity", mock.Anything, activities.FetchPDFInput{URL: "https://x/cv.pdf"}).Return(activities.FetchPDFOutput{DocID: "doc1", Path: "/tmp/doc1.pdf"}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, activities.ExtractTextInput{Path: "/tmp/doc1.pdf"}).Return(activities.ExtractTextOutput{Text: "text body"}, nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.MatchedBy(func(in activities.ChunkTextInput) bool {
		return in.DocID == "doc1" && in.Title == "cv.pdf" && in.ChunkSize == defaultChunkSize && in.ChunkOverlap == defaultChunkOverlap
	})).Return(activities.ChunkTextOutput{Chunks: chunks}, nil)
	env.OnActivity("ReplaceChunksActivity", mock.Anything, activities.ReplaceChunksInput{DocID: "doc1", Chunks: chunks}).Return(nil)
	env.OnActivity("CleanupStagedActivity", mock.Anything, activities.CleanupStagedInput{Path: "/tmp/doc1.pdf"}).Return(nil).Once()

	env.ExecuteWorkflow(IngestDocumentWorkflow, IngestDocumentInput{URL: "https://x/cv.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusIngested, out)
	env.AssertExpectations(t)
}

func TestIngestDocumentWorkflowNoTextFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(IngestDocumentWorkflow)
	registerIngestActivities(env)

	env.OnActivity("FetchPDFActivity", mock.Anything, mock.Anything).Return(activities.FetchPDFOutput{DocID: "doc1", Path: "/tmp/doc1.pdf"}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{}, errors.New("no extractable text found in PDF"))
	env.OnActivity("CleanupStagedActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(IngestDocumentWorkflow, IngestDocumentInput{URL: "https://x/scan.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusFailed, out)
}

func TestIngestDocumentWorkflowFetchErrorFails(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(IngestDocumentWorkflow)
	registerIngestActivities(env)

	env.OnActivity("FetchPDFActivity", mock.Anything, mock.Anything).Return(activities.FetchPDFOutput{}, errors.New("fetch: status 404"))

	env.ExecuteWorkflow(IngestDocumentWorkflow, IngestDocumentInput{URL: "https://x/missing.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestWorkflowIDAndTitleDefaults(t *testing.T) {
	require.Equal(t, "ingest-ab12", WorkflowID("AB12"))
	require.Equal(t, "cv.pdf", titleOrDefault("  ", "https://x/cv.pdf"))
	require.Equal(t, "Thesis", titleOrDefault("Thesis", "https://x/cv.pdf"))
}
