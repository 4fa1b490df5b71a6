package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"docsmith-worker/internal/jobs"
	"docsmith-worker/internal/storage"
	"docsmith-worker/internal/storage/filesystem"
	"docsmith-worker/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator simule le service de génération externe
type fakeGenerator struct {
	body  []byte
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.body, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestProcessor(t *testing.T, gen Generator) (*JobProcessor, jobs.JobService, *storage.ArtifactService) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docsmith-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	backend, err := filesystem.NewFilesystemStorage(tempDir)
	require.NoError(t, err)
	artifacts := storage.NewArtifactService(backend)

	svc := jobs.NewMemoryJobService()
	return NewJobProcessor(svc, artifacts, gen, 5*time.Second), svc, artifacts
}

func TestProcessJobStructuredSuccess(t *testing.T) {
	gen := &fakeGenerator{body: []byte(`{"html": "<h1>Memo</h1>", "projectId": "p1"}`)}
	processor, svc, artifacts := newTestProcessor(t, gen)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "Write a memo")
	require.NoError(t, err)

	result := processor.ProcessJob(ctx, job)
	assert.True(t, result.Success)

	stored, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "<h1>Memo</h1>", stored.HTML)
	assert.Equal(t, "p1", stored.ProjectID)
	assert.Equal(t, "<h1>Memo</h1>", stored.Result["html"])
	assert.Empty(t, stored.Error)
	// Le prompt d'origine est intact
	assert.Equal(t, "Write a memo", stored.Prompt)

	// Le document est archivé
	exists, err := artifacts.DocumentExists(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProcessJobMarkupResponse(t *testing.T) {
	gen := &fakeGenerator{body: []byte("<!DOCTYPE html><html><body>ok</body></html>")}
	processor, svc, _ := newTestProcessor(t, gen)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "P")
	require.NoError(t, err)

	result := processor.ProcessJob(ctx, job)
	assert.True(t, result.Success)

	stored, _ := svc.GetJob(ctx, job.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Contains(t, stored.HTML, "<!DOCTYPE html>")
	// Pas de payload structuré: project_id dérivé du job
	assert.Equal(t, models.DeriveProjectID(job.ID), stored.ProjectID)
}

func TestProcessJobGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	processor, svc, _ := newTestProcessor(t, gen)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "X")
	require.NoError(t, err)

	result := processor.ProcessJob(ctx, job)
	assert.False(t, result.Success)

	stored, _ := svc.GetJob(ctx, job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "connection refused")
	// Le contenu de repli embarque le prompt et l'erreur
	assert.Contains(t, stored.HTML, "X")
	assert.Contains(t, stored.HTML, "connection refused")
	assert.NotEmpty(t, stored.HTML)
}

func TestProcessJobInvalidResponse(t *testing.T) {
	gen := &fakeGenerator{body: []byte("generation complete")}
	processor, svc, _ := newTestProcessor(t, gen)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "P")
	require.NoError(t, err)

	result := processor.ProcessJob(ctx, job)
	assert.False(t, result.Success)

	stored, _ := svc.GetJob(ctx, job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "invalid response format")
}

// panicStorage simule un backend d'artefacts qui s'effondre à l'écriture
type panicStorage struct{}

func (panicStorage) Upload(ctx context.Context, path string, data io.Reader) error {
	panic("storage backend unavailable")
}
func (panicStorage) Download(ctx context.Context, path string) (io.Reader, error) {
	return nil, errors.New("not implemented")
}
func (panicStorage) Exists(ctx context.Context, path string) (bool, error) { return false, nil }
func (panicStorage) Delete(ctx context.Context, path string) error         { return nil }
func (panicStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}
func (panicStorage) GetURL(ctx context.Context, path string) (string, error) { return "", nil }

func TestProcessJobPanicAfterCompletionKeepsOutcome(t *testing.T) {
	gen := &fakeGenerator{body: []byte(`{"html": "<p>ok</p>", "projectId": "p1"}`)}

	svc := jobs.NewMemoryJobService()
	artifacts := storage.NewArtifactService(panicStorage{})
	processor := NewJobProcessor(svc, artifacts, gen, time.Second)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "P")
	require.NoError(t, err)

	result := processor.ProcessJob(ctx, job)
	assert.False(t, result.Success)
	assert.Error(t, result.Error)

	// Le job était déjà completed quand l'archivage a paniqué: son issue
	// ne doit pas être réécrite en failed
	stored, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "<p>ok</p>", stored.HTML)
	assert.Empty(t, stored.Error)
}

func TestProcessJobTimeout(t *testing.T) {
	gen := &fakeGenerator{
		body:  []byte(`{"html": "<p>late</p>"}`),
		delay: 500 * time.Millisecond,
	}

	svc := jobs.NewMemoryJobService()
	processor := NewJobProcessor(svc, nil, gen, 50*time.Millisecond)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "slow")
	require.NoError(t, err)

	result := processor.ProcessJob(ctx, job)
	assert.False(t, result.Success)

	stored, _ := svc.GetJob(ctx, job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
	assert.Contains(t, stored.HTML, "slow")
}
