// internal/validation/validation.go - Validation des requêtes API

package validation

import (
	"strings"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
)

// ValidationError décrit une erreur de validation sur un champ
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult porte l'issue d'une validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// APIValidator gère la validation des requêtes API
type APIValidator struct {
	maxPromptLength int
}

// NewAPIValidator crée un nouveau validateur d'API
func NewAPIValidator() *APIValidator {
	return &APIValidator{
		maxPromptLength: 100_000,
	}
}

// NormalizeSubmitRequest normalise une soumission. Un prompt absent n'est
// pas rejeté: il est remplacé par le prompt par défaut.
func (av *APIValidator) NormalizeSubmitRequest(req *models.SubmitRequest) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		req.Prompt = models.DefaultPrompt
	}
	if len(req.Prompt) > av.maxPromptLength {
		req.Prompt = req.Prompt[:av.maxPromptLength]
	}
}

// ValidateJobIDParam valide un paramètre job_id depuis l'URL
func (av *APIValidator) ValidateJobIDParam(jobIDStr string) (uuid.UUID, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "id",
			Message: "must be a valid UUID",
		})
		return uuid.Nil, result
	}

	return jobID, result
}

// ValidateListParams valide les paramètres de listing
func (av *APIValidator) ValidateListParams(status string, limit int) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch models.JobStatus(status) {
	case "", models.StatusPending, models.StatusProcessing, models.StatusCompleted, models.StatusFailed:
	default:
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "status",
			Message: "unknown status value",
		})
	}

	if limit < 0 || limit > 1000 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "limit",
			Message: "must be between 0 and 1000",
		})
	}

	return result
}
