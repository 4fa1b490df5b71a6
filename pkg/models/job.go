package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// JSON type for PostgreSQL compatibility
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	if len(bytes) == 0 {
		*j = make(map[string]interface{})
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// DocumentJob est le modèle principal pour la base de données
type DocumentJob struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Status    JobStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Prompt    string    `json:"prompt" gorm:"type:text;not null"`
	HTML      string    `json:"html" gorm:"type:text"`
	ProjectID string    `json:"project_id,omitempty" gorm:"type:varchar(64)"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	Result    JSON      `json:"result,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName spécifie le nom de la table
func (DocumentJob) TableName() string {
	return "document_jobs"
}

// BeforeCreate hook GORM pour initialiser l'ID et les timestamps
func (j *DocumentJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	return nil
}

// BeforeUpdate hook GORM pour mettre à jour le timestamp
func (j *DocumentJob) BeforeUpdate(tx *gorm.DB) error {
	j.UpdatedAt = time.Now()
	return nil
}

// IsTerminal retourne true si le job est dans un état final
func (j *DocumentJob) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// IsActive retourne true si le job est en attente ou en cours de traitement
func (j *DocumentJob) IsActive() bool {
	return j.Status == StatusPending || j.Status == StatusProcessing
}

// ProjectLabel retourne le project_id stocké, ou celui dérivé de l'ID du job
func (j *DocumentJob) ProjectLabel() string {
	if j.ProjectID != "" {
		return j.ProjectID
	}
	return DeriveProjectID(j.ID)
}

// DeriveProjectID construit le project_id par défaut d'un job
func DeriveProjectID(id uuid.UUID) string {
	return "doc-" + id.String()[:8]
}

// DefaultPrompt remplace un prompt vide à la soumission
const DefaultPrompt = "Untitled document"

// PlaceholderHTML retourne le contenu affiché tant que le job est actif.
// Le poller doit toujours avoir quelque chose à rendre.
func PlaceholderHTML(prompt string) string {
	return fmt.Sprintf(
		`<div class="generation-pending"><h2>Generating your document&hellip;</h2><p>Request: %s</p><p>This page refreshes automatically while the document is being prepared.</p></div>`,
		html.EscapeString(prompt),
	)
}

// FallbackHTML retourne un document de repli en cas d'échec, avec le prompt
// d'origine et le texte de l'erreur toujours visibles.
func FallbackHTML(prompt, errText string) string {
	return fmt.Sprintf(
		`<div class="generation-failed"><h2>Document generation failed</h2><p>Request: %s</p><p class="error-detail">%s</p><p>You can edit this page directly or submit the request again.</p></div>`,
		html.EscapeString(prompt),
		html.EscapeString(errText),
	)
}

// SubmitRequest représente une demande de génération de document
// @Description Requête pour créer un nouveau job de génération
type SubmitRequest struct {
	Prompt string `json:"prompt"`
} // @name SubmitRequest

// SubmitResponse est la réponse immédiate à une soumission
// @Description Identifiant du job créé et contenu placeholder
type SubmitResponse struct {
	JobID     uuid.UUID `json:"jobId"`
	Status    JobStatus `json:"status"`
	HTML      string    `json:"html"`
	ProjectID string    `json:"projectId"`
	Message   string    `json:"message,omitempty"`
} // @name SubmitResponse

// StatusResponse représente l'état courant d'un job
// @Description État courant d'un job de génération
type StatusResponse struct {
	JobID     uuid.UUID              `json:"jobId"`
	Status    JobStatus              `json:"status"`
	HTML      string                 `json:"html,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ProjectID string                 `json:"projectId,omitempty"`
	Result    map[string]interface{} `json:"result,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
} // @name StatusResponse

// ToStatusResponse convertit un DocumentJob en StatusResponse
func (j *DocumentJob) ToStatusResponse() *StatusResponse {
	resp := &StatusResponse{
		JobID:     j.ID,
		Status:    j.Status,
		HTML:      j.HTML,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}

	switch j.Status {
	case StatusPending, StatusProcessing:
		resp.Message = "document generation in progress"
	case StatusFailed:
		resp.Error = j.Error
		resp.ProjectID = j.ProjectLabel()
	case StatusCompleted:
		resp.Result = map[string]interface{}(j.Result)
		resp.ProjectID = j.ProjectLabel()
	}

	return resp
}

// JobListResponse représente une liste de jobs
// @Description Liste de jobs de génération
type JobListResponse struct {
	Jobs  []StatusResponse `json:"jobs"`
	Count int              `json:"count" example:"25"`
} // @name JobListResponse
