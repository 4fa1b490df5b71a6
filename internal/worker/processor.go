package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"docsmith-worker/internal/generator"
	"docsmith-worker/internal/jobs"
	"docsmith-worker/internal/storage"
	"docsmith-worker/pkg/models"
)

// Generator est l'appel sortant vers le service de génération externe.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// JobProcessor conduit un job de pending/processing jusqu'à un état
// terminal. Toutes les erreurs sont absorbées ici: le processor est une
// tâche détachée sans superviseur, rien ne doit remonter.
type JobProcessor struct {
	jobService      jobs.JobService
	artifactService *storage.ArtifactService
	generator       Generator
	timeout         time.Duration
}

func NewJobProcessor(
	jobService jobs.JobService,
	artifactService *storage.ArtifactService,
	gen Generator,
	timeout time.Duration,
) *JobProcessor {
	return &JobProcessor{
		jobService:      jobService,
		artifactService: artifactService,
		generator:       gen,
		timeout:         timeout,
	}
}

// ProcessResult contient l'issue du traitement d'un job
type ProcessResult struct {
	Success bool
	Error   error
}

// ProcessJob traite un job individuel
func (p *JobProcessor) ProcessJob(ctx context.Context, job *models.DocumentJob) (result ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing job %s: %v", job.ID, r)
			log.Printf("JobProcessor: %v", err)
			p.failWithRecovery(ctx, job, err)
			result = ProcessResult{Success: false, Error: err}
		}
	}()

	// Marquer processing: observabilité seulement, on continue si l'écriture
	// échoue.
	if err := p.jobService.UpdateJob(ctx, job.ID, map[string]interface{}{
		"status": models.StatusProcessing,
	}); err != nil {
		log.Printf("JobProcessor: failed to mark job %s processing: %v", job.ID, err)
	}

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := p.generator.Generate(genCtx, job.Prompt)
	if err != nil {
		p.fail(ctx, job, err)
		return ProcessResult{Success: false, Error: err}
	}

	parsed, err := generator.Classify(body)
	if err != nil {
		p.fail(ctx, job, err)
		return ProcessResult{Success: false, Error: err}
	}

	p.complete(ctx, job, parsed)
	return ProcessResult{Success: true}
}

func (p *JobProcessor) complete(ctx context.Context, job *models.DocumentJob, parsed *generator.Result) {
	projectID := parsed.ProjectID
	if projectID == "" {
		projectID = models.DeriveProjectID(job.ID)
	}

	fields := map[string]interface{}{
		"status":     models.StatusCompleted,
		"html":       parsed.HTML,
		"project_id": projectID,
	}
	if parsed.Payload != nil {
		fields["result"] = parsed.Payload
	}

	if err := p.jobService.UpdateJob(ctx, job.ID, fields); err != nil {
		log.Printf("JobProcessor: failed to mark job %s completed: %v", job.ID, err)
		return
	}

	log.Printf("JobProcessor: job %s completed (project: %s)", job.ID, projectID)

	p.persistArtifacts(ctx, job, parsed)
}

// persistArtifacts archive le document final. Best-effort: le job est déjà
// terminal, un échec d'archivage ne change pas son issue.
func (p *JobProcessor) persistArtifacts(ctx context.Context, job *models.DocumentJob, parsed *generator.Result) {
	if p.artifactService == nil {
		return
	}

	if err := p.artifactService.SaveDocument(ctx, job.ID, parsed.HTML); err != nil {
		log.Printf("JobProcessor: failed to archive document for job %s: %v", job.ID, err)
	}

	if parsed.Payload != nil {
		if err := p.artifactService.SaveResult(ctx, job.ID, parsed.Payload); err != nil {
			log.Printf("JobProcessor: failed to archive result for job %s: %v", job.ID, err)
		}
	}
}

// fail encode l'échec dans le job: error renseigné, html de repli contenant
// le prompt et le texte de l'erreur pour que le client ait toujours quelque
// chose à rendre.
func (p *JobProcessor) fail(ctx context.Context, job *models.DocumentJob, cause error) {
	errText := cause.Error()
	fallback := models.FallbackHTML(job.Prompt, errText)

	fields := map[string]interface{}{
		"status": models.StatusFailed,
		"error":  errText,
		"html":   fallback,
		"result": models.JSON{
			"error":  errText,
			"prompt": job.Prompt,
		},
	}

	if err := p.jobService.UpdateJob(ctx, job.ID, fields); err != nil {
		log.Printf("JobProcessor: failed to mark job %s failed: %v", job.ID, err)
		return
	}

	log.Printf("JobProcessor: job %s failed: %s", job.ID, errText)
}

// failWithRecovery relit le job pour retrouver le prompt d'origine avant de
// synthétiser le contenu de repli.
func (p *JobProcessor) failWithRecovery(ctx context.Context, job *models.DocumentJob, cause error) {
	stored, err := p.jobService.GetJob(ctx, job.ID)
	if err != nil || stored == nil {
		stored = job
	}

	// Un état terminal ne change plus: si le panic est survenu après la
	// complétion (archivage), l'issue du job reste acquise.
	if stored.IsTerminal() {
		log.Printf("JobProcessor: job %s already %s, keeping its outcome after recovery", job.ID, stored.Status)
		return
	}

	p.fail(ctx, stored, cause)
}
