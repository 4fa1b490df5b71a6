package storage

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"docsmith-worker/internal/storage/filesystem"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArtifactService(t *testing.T) *ArtifactService {
	t.Helper()

	backend, err := filesystem.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	return NewArtifactService(backend)
}

func TestArtifactServiceDocumentRoundTrip(t *testing.T) {
	service := newTestArtifactService(t)
	ctx := context.Background()
	jobID := uuid.New()

	exists, err := service.DocumentExists(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, exists)

	html := "<h1>Quarterly Report</h1><p>Revenue is up.</p>"
	require.NoError(t, service.SaveDocument(ctx, jobID, html))

	exists, err = service.DocumentExists(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, exists)

	reader, err := service.GetDocument(ctx, jobID)
	require.NoError(t, err)

	stored, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, html, string(stored))
}

func TestArtifactServiceSaveResult(t *testing.T) {
	service := newTestArtifactService(t)
	ctx := context.Background()
	jobID := uuid.New()

	payload := map[string]interface{}{
		"html":      "<p>done</p>",
		"projectId": "p42",
	}
	require.NoError(t, service.SaveResult(ctx, jobID, payload))

	reader, err := service.storage.Download(ctx, resultPath(jobID))
	require.NoError(t, err)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "<p>done</p>", decoded["html"])
	assert.Equal(t, "p42", decoded["projectId"])
}

func TestArtifactServiceDeleteJobArtifacts(t *testing.T) {
	service := newTestArtifactService(t)
	ctx := context.Background()

	jobID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, service.SaveDocument(ctx, jobID, "<p>a</p>"))
	require.NoError(t, service.SaveResult(ctx, jobID, map[string]interface{}{"html": "<p>a</p>"}))
	require.NoError(t, service.SaveDocument(ctx, otherID, "<p>b</p>"))

	require.NoError(t, service.DeleteJobArtifacts(ctx, jobID))

	exists, err := service.DocumentExists(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Les artefacts des autres jobs ne sont pas touchés
	exists, err = service.DocumentExists(ctx, otherID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArtifactServiceDocumentURL(t *testing.T) {
	service := newTestArtifactService(t)
	jobID := uuid.New()

	url, err := service.DocumentURL(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, documentPath(jobID), url)
}
