package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"docsmith-worker/pkg/storage"

	"github.com/google/uuid"
)

// ArtifactService persiste les documents générés. Le HTML final et le
// payload structuré d'un job terminé sont conservés sous documents/{job_id}/.
type ArtifactService struct {
	storage storage.Storage
}

func NewArtifactService(storage storage.Storage) *ArtifactService {
	return &ArtifactService{
		storage: storage,
	}
}

// SaveDocument écrit le HTML final d'un job dans le store d'artefacts.
func (s *ArtifactService) SaveDocument(ctx context.Context, jobID uuid.UUID, html string) error {
	path := documentPath(jobID)
	if err := s.storage.Upload(ctx, path, strings.NewReader(html)); err != nil {
		return fmt.Errorf("failed to save document for job %s: %w", jobID, err)
	}
	return nil
}

// SaveResult écrit le payload structuré brut retourné par le service de
// génération, pour pouvoir le rejouer ou le déboguer plus tard.
func (s *ArtifactService) SaveResult(ctx context.Context, jobID uuid.UUID, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode result for job %s: %w", jobID, err)
	}

	path := resultPath(jobID)
	if err := s.storage.Upload(ctx, path, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("failed to save result for job %s: %w", jobID, err)
	}
	return nil
}

// GetDocument retourne le HTML stocké d'un job
func (s *ArtifactService) GetDocument(ctx context.Context, jobID uuid.UUID) (io.Reader, error) {
	return s.storage.Download(ctx, documentPath(jobID))
}

// DocumentExists vérifie si un document a été persisté pour ce job
func (s *ArtifactService) DocumentExists(ctx context.Context, jobID uuid.UUID) (bool, error) {
	return s.storage.Exists(ctx, documentPath(jobID))
}

// DocumentURL retourne une URL d'accès au document stocké
func (s *ArtifactService) DocumentURL(ctx context.Context, jobID uuid.UUID) (string, error) {
	return s.storage.GetURL(ctx, documentPath(jobID))
}

// DeleteJobArtifacts supprime tous les artefacts d'un job
func (s *ArtifactService) DeleteJobArtifacts(ctx context.Context, jobID uuid.UUID) error {
	prefix := fmt.Sprintf("documents/%s/", jobID.String())
	files, err := s.storage.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list artifacts for job %s: %w", jobID, err)
	}

	for _, file := range files {
		if err := s.storage.Delete(ctx, file); err != nil {
			return fmt.Errorf("failed to delete artifact %s: %w", file, err)
		}
	}
	return nil
}

func documentPath(jobID uuid.UUID) string {
	return fmt.Sprintf("documents/%s/index.html", jobID.String())
}

func resultPath(jobID uuid.UUID) string {
	return fmt.Sprintf("documents/%s/result.json", jobID.String())
}
