// Package client fournit le client de soumission et de polling utilisé par
// les frontends du service de génération.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
)

// State décrit où en est le poller
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateDone       State = "done"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

// Config configure un Poller
type Config struct {
	BaseURL      string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPClient   *http.Client
}

// Poller soumet une demande de génération puis interroge le statut à
// intervalle fixe jusqu'à un état terminal ou épuisement des tentatives.
// Chaque soumission démarre exactement une boucle de polling; un nouveau
// Run réinitialise tout l'état.
type Poller struct {
	cfg Config

	mu    sync.Mutex
	state State
}

// FinalResult est l'issue d'un cycle soumission + polling
type FinalResult struct {
	JobID     uuid.UUID
	Status    models.JobStatus
	HTML      string
	Error     string
	ProjectID string
	Result    map[string]interface{}
	TimedOut  bool
	Attempts  int
}

func New(cfg Config) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Poller{cfg: cfg, state: StateIdle}
}

// State retourne l'état courant du poller
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run soumet le prompt puis poll jusqu'au terminal. onUpdate est appelé à
// chaque fois que le contenu intermédiaire change, pour rafraîchir l'UI
// sans arrêter le polling.
func (p *Poller) Run(ctx context.Context, prompt string, onUpdate func(html string)) (*FinalResult, error) {
	p.setState(StateSubmitting)
	defer p.setState(StateDone)

	submitted, err := p.submit(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if submitted.Status == models.StatusCompleted || submitted.Status == models.StatusFailed {
		// Mode dégradé: rien à poller, le document de repli est final
		return &FinalResult{
			JobID:     submitted.JobID,
			Status:    submitted.Status,
			HTML:      submitted.HTML,
			Error:     submitted.Message,
			ProjectID: submitted.ProjectID,
		}, nil
	}

	if onUpdate != nil && submitted.HTML != "" {
		onUpdate(submitted.HTML)
	}

	p.setState(StatePolling)
	return p.poll(ctx, submitted.JobID, submitted.HTML, onUpdate)
}

func (p *Poller) submit(ctx context.Context, prompt string) (*models.SubmitResponse, error) {
	payload, err := json.Marshal(models.SubmitRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit failed: %w", err)
	}
	defer resp.Body.Close()

	var submitted models.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}

	return &submitted, nil
}

func (p *Poller) poll(ctx context.Context, jobID uuid.UUID, lastHTML string, onUpdate func(html string)) (*FinalResult, error) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := p.fetchStatus(ctx, jobID)
		if err != nil {
			// Une erreur réseau pendant le polling est terminale, on ne
			// retraverse pas les pannes transitoires.
			return nil, err
		}

		switch status.Status {
		case models.StatusCompleted, models.StatusFailed:
			return &FinalResult{
				JobID:     jobID,
				Status:    status.Status,
				HTML:      status.HTML,
				Error:     status.Error,
				ProjectID: status.ProjectID,
				Result:    status.Result,
				Attempts:  attempt,
			}, nil
		default:
			if onUpdate != nil && status.HTML != "" && status.HTML != lastHTML {
				lastHTML = status.HTML
				onUpdate(status.HTML)
			}
		}
	}

	// Abandon purement local: le job continue côté serveur, on ne
	// l'observe simplement plus.
	return &FinalResult{
		JobID:    jobID,
		Status:   models.StatusProcessing,
		HTML:     lastHTML,
		Error:    "generation timed out; the document may still complete on the server",
		TimedOut: true,
		Attempts: p.cfg.MaxAttempts,
	}, nil
}

func (p *Poller) fetchStatus(ctx context.Context, jobID uuid.UUID) (*models.StatusResponse, error) {
	url := fmt.Sprintf("%s/api/v1/jobs/%s", p.cfg.BaseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request returned %d", resp.StatusCode)
	}

	var status models.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &status, nil
}
