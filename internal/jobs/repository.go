package jobs

import (
	"context"
	"errors"
	"time"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobRepository interface {
	Create(ctx context.Context, job *models.DocumentJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentJob, error)
	List(ctx context.Context, filters JobFilters) ([]*models.DocumentJob, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type JobFilters struct {
	Status string
	Limit  int
	Offset int
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.DocumentJob) error {
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()

	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retourne (nil, nil) si aucun job n'existe pour cet ID. L'absence
// est un résultat attendu, pas une erreur.
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentJob, error) {
	var job models.DocumentJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(ctx context.Context, filters JobFilters) ([]*models.DocumentJob, error) {
	var jobs []*models.DocumentJob

	query := r.db.WithContext(ctx).Model(&models.DocumentJob{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	query = query.Order("created_at DESC")

	err := query.Find(&jobs).Error
	return jobs, err
}

// UpdateFields fusionne les champs donnés dans le job existant. L'ID et
// created_at ne sont jamais modifiés.
func (r *jobRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	return r.db.WithContext(ctx).Model(&models.DocumentJob{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteOlderThan supprime les jobs créés avant cutoff, quel que soit leur
// statut, et retourne leurs identifiants pour invalider les caches.
func (r *jobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.DocumentJob{}).
		Where("created_at < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.DocumentJob{}).Error; err != nil {
		return nil, err
	}

	return ids, nil
}
