package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type jobServiceImpl struct {
	repo   JobRepository
	tracer trace.Tracer
}

func NewJobServiceImpl(repo JobRepository) JobService {
	return &jobServiceImpl{
		repo:   repo,
		tracer: otel.Tracer("docsmith-worker/jobs"),
	}
}

func (s *jobServiceImpl) CreateJob(ctx context.Context, prompt string) (*models.DocumentJob, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.CreateJob")
	defer span.End()

	job := &models.DocumentJob{
		Status: models.StatusPending,
		Prompt: prompt,
		HTML:   models.PlaceholderHTML(prompt),
	}

	if err := s.repo.Create(ctx, job); err != nil {
		span.RecordError(err)
		log.Printf("JobService.CreateJob: Failed to create job: %v", err)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	log.Printf("JobService.CreateJob: Job %s created", job.ID)
	return job, nil
}

func (s *jobServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (*models.DocumentJob, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.GetJob")
	defer span.End()

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		log.Printf("JobService.GetJob: Failed to get job %s: %v", id, err)
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}

	return job, nil
}

func (s *jobServiceImpl) ListJobs(ctx context.Context, status string, limit int) ([]*models.DocumentJob, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.ListJobs")
	defer span.End()

	if limit <= 0 {
		limit = 100 // Default limit
	}

	jobs, err := s.repo.List(ctx, JobFilters{Status: status, Limit: limit})
	if err != nil {
		span.RecordError(err)
		log.Printf("JobService.ListJobs: Failed to list jobs: %v", err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

func (s *jobServiceImpl) UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	ctx, span := s.tracer.Start(ctx, "JobService.UpdateJob")
	defer span.End()

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		span.RecordError(err)
		log.Printf("JobService.UpdateJob: Failed to update job %s: %v", id, err)
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}

	return nil
}

func (s *jobServiceImpl) CleanupOldJobs(ctx context.Context, maxAge time.Duration) ([]uuid.UUID, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.CleanupOldJobs")
	defer span.End()

	cutoffTime := time.Now().Add(-maxAge)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoffTime)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}

	if len(deleted) > 0 {
		log.Printf("Cleaned up %d old jobs", len(deleted))
	}

	return deleted, nil
}
