package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"docsmith-worker/internal/cache"
	"docsmith-worker/internal/jobs"
	"docsmith-worker/internal/storage"
	"docsmith-worker/internal/validation"
	"docsmith-worker/internal/worker"
	"docsmith-worker/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Dispatcher remet un job créé au pool de processors sans bloquer la
// requête HTTP.
type Dispatcher interface {
	Submit(job *models.DocumentJob)
	GetStats() worker.PoolStats
}

// statusCacheTTL borne la durée de vie des statuts terminaux en cache
const statusCacheTTL = time.Hour

type Handlers struct {
	jobService      jobs.JobService
	dispatcher      Dispatcher
	artifactService *storage.ArtifactService
	statusCache     cache.StatusCache
	validator       *validation.APIValidator
}

func NewHandlers(
	jobService jobs.JobService,
	dispatcher Dispatcher,
	artifactService *storage.ArtifactService,
	statusCache cache.StatusCache,
	validator *validation.APIValidator,
) *Handlers {
	return &Handlers{
		jobService:      jobService,
		dispatcher:      dispatcher,
		artifactService: artifactService,
		statusCache:     statusCache,
		validator:       validator,
	}
}

// Health check
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "docsmith-worker",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SubmitJob crée un job de génération et le lance en arrière-plan.
// La réponse ne dépend que de l'écriture en base, jamais de la génération.
// @Summary Submit a document generation request
// @Accept json
// @Produce json
// @Param request body models.SubmitRequest true "Generation request"
// @Success 200 {object} models.SubmitResponse
// @Router /jobs [post]
func (h *Handlers) SubmitJob(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Corps absent ou illisible: on retombe sur le prompt par défaut
		// plutôt que de rejeter la soumission.
		req = models.SubmitRequest{}
	}
	h.validator.NormalizeSubmitRequest(&req)

	job, err := h.jobService.CreateJob(c.Request.Context(), req.Prompt)
	if err != nil {
		log.Printf("Failed to create job: %v", err)
		h.respondDegraded(c, req.Prompt, err)
		return
	}

	// Fire-and-forget: le processor tourne au-delà de cette requête
	h.dispatcher.Submit(job)

	c.JSON(http.StatusOK, models.SubmitResponse{
		JobID:     job.ID,
		Status:    job.Status,
		HTML:      job.HTML,
		ProjectID: models.DeriveProjectID(job.ID),
	})
}

// respondDegraded renvoie un document de repli avec un identifiant
// éphémère quand le store est injoignable. Le client a quelque chose à
// rendre mais rien à poller.
func (h *Handlers) respondDegraded(c *gin.Context, prompt string, cause error) {
	ephemeralID := uuid.New()
	c.JSON(http.StatusOK, models.SubmitResponse{
		JobID:     ephemeralID,
		Status:    models.StatusFailed,
		HTML:      models.FallbackHTML(prompt, "document service temporarily unavailable: "+cause.Error()),
		ProjectID: "local-" + ephemeralID.String()[:8],
		Message:   "job could not be persisted; this result is not retrievable",
	})
}

// GetJobStatus retourne l'état courant d'un job. Lecture pure: le job
// n'est jamais modifié ici.
// @Summary Get job status
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.StatusResponse
// @Failure 404 {object} map[string]interface{}
// @Router /jobs/{id} [get]
func (h *Handlers) GetJobStatus(c *gin.Context) {
	jobIDStr := c.Param("id")

	jobID, validationResult := h.validator.ValidateJobIDParam(jobIDStr)
	if !validationResult.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Invalid job ID",
			"validation_errors": validationResult.Errors,
		})
		return
	}

	if h.statusCache != nil {
		if cached, hit, err := h.statusCache.GetStatus(c.Request.Context(), jobID); err == nil && hit {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	job, err := h.jobService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		log.Printf("Failed to retrieve job %s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}

	resp := job.ToStatusResponse()

	// Seuls les états terminaux vont en cache: ils ne changent plus.
	if h.statusCache != nil && job.IsTerminal() {
		if err := h.statusCache.SetStatus(c.Request.Context(), jobID, resp, statusCacheTTL); err != nil {
			log.Printf("Failed to cache status for job %s: %v", jobID, err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListJobs liste les jobs avec filtrage optionnel
// @Summary List jobs
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Maximum number of jobs"
// @Success 200 {object} models.JobListResponse
// @Router /jobs [get]
func (h *Handlers) ListJobs(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	validationResult := h.validator.ValidateListParams(status, limit)
	if !validationResult.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Invalid query parameters",
			"validation_errors": validationResult.Errors,
		})
		return
	}

	jobList, err := h.jobService.ListJobs(c.Request.Context(), status, limit)
	if err != nil {
		log.Printf("Failed to list jobs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	responses := make([]models.StatusResponse, len(jobList))
	for i, job := range jobList {
		responses[i] = *job.ToStatusResponse()
	}

	c.JSON(http.StatusOK, models.JobListResponse{
		Jobs:  responses,
		Count: len(responses),
	})
}

// GetJobDocument sert le document HTML archivé d'un job terminé
// @Summary Download the stored document of a completed job
// @Produce html
// @Param id path string true "Job ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {object} map[string]interface{}
// @Router /jobs/{id}/document [get]
func (h *Handlers) GetJobDocument(c *gin.Context) {
	jobIDStr := c.Param("id")

	jobID, validationResult := h.validator.ValidateJobIDParam(jobIDStr)
	if !validationResult.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Invalid job ID",
			"validation_errors": validationResult.Errors,
		})
		return
	}

	if h.artifactService == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}

	exists, err := h.artifactService.DocumentExists(c.Request.Context(), jobID)
	if err != nil || !exists {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}

	reader, err := h.artifactService.GetDocument(c.Request.Context(), jobID)
	if err != nil {
		log.Printf("Failed to load document for job %s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}

	c.DataFromReader(http.StatusOK, -1, "text/html; charset=utf-8", reader, nil)
}

// GetWorkerStats expose les statistiques du pool de processors
// @Summary Processor pool statistics
// @Produce json
// @Success 200 {object} worker.PoolStats
// @Router /workers/stats [get]
func (h *Handlers) GetWorkerStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.GetStats())
}
