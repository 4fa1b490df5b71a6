package jobs

import (
	"context"
	"sync"
	"time"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
)

type JobService interface {
	CreateJob(ctx context.Context, prompt string) (*models.DocumentJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.DocumentJob, error)
	ListJobs(ctx context.Context, status string, limit int) ([]*models.DocumentJob, error)
	UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	CleanupOldJobs(ctx context.Context, maxAge time.Duration) ([]uuid.UUID, error)
}

// memoryJobService est une implémentation en mémoire utilisée par les tests
// et le mode dégradé sans base de données.
type memoryJobService struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*models.DocumentJob
}

func NewMemoryJobService() JobService {
	return &memoryJobService{
		jobs: make(map[uuid.UUID]*models.DocumentJob),
	}
}

func (s *memoryJobService) CreateJob(ctx context.Context, prompt string) (*models.DocumentJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job := &models.DocumentJob{
		ID:        uuid.New(),
		Status:    models.StatusPending,
		Prompt:    prompt,
		HTML:      models.PlaceholderHTML(prompt),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job

	copy := *job
	return &copy, nil
}

func (s *memoryJobService) GetJob(ctx context.Context, id uuid.UUID) (*models.DocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	copy := *job
	return &copy, nil
}

func (s *memoryJobService) ListJobs(ctx context.Context, status string, limit int) ([]*models.DocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DocumentJob
	for _, job := range s.jobs {
		if status != "" && string(job.Status) != status {
			continue
		}
		copy := *job
		out = append(out, &copy)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memoryJobService) UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil
	}

	for k, v := range fields {
		switch k {
		case "status":
			if status, ok := v.(models.JobStatus); ok {
				job.Status = status
			}
		case "html":
			if html, ok := v.(string); ok {
				job.HTML = html
			}
		case "project_id":
			if projectID, ok := v.(string); ok {
				job.ProjectID = projectID
			}
		case "error":
			if errText, ok := v.(string); ok {
				job.Error = errText
			}
		case "result":
			if result, ok := v.(models.JSON); ok {
				job.Result = result
			}
		}
	}
	job.UpdatedAt = time.Now()

	return nil
}

func (s *memoryJobService) CleanupOldJobs(ctx context.Context, maxAge time.Duration) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var deleted []uuid.UUID
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}
