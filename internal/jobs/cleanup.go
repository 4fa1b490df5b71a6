package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusInvalidator retire du cache le statut d'un job supprimé. Sans ça,
// un statut terminal caché continuerait de répondre pour un job balayé.
type StatusInvalidator interface {
	DeleteStatus(ctx context.Context, jobID uuid.UUID) error
}

// RetentionSweeper supprime périodiquement les jobs plus vieux que la
// fenêtre de rétention. Le timestamp de la dernière passe appartient au
// sweeper lui-même, pas à un état global.
type RetentionSweeper struct {
	jobService  JobService
	invalidator StatusInvalidator
	interval    time.Duration
	sweepGap    time.Duration
	retention   time.Duration

	mu      sync.Mutex
	lastRun time.Time

	stopCh chan struct{}
}

func NewRetentionSweeper(jobService JobService, invalidator StatusInvalidator, interval, sweepGap, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		jobService:  jobService,
		invalidator: invalidator,
		interval:    interval,
		sweepGap:    sweepGap,
		retention:   retention,
		stopCh:      make(chan struct{}),
	}
}

func (s *RetentionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Retention sweeper started (interval: %v, gap: %v, retention: %v)", s.interval, s.sweepGap, s.retention)

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention sweeper stopped due to context cancellation")
			return
		case <-s.stopCh:
			log.Println("Retention sweeper stopped")
			return
		case <-ticker.C:
			s.SweepIfDue(ctx, time.Now())
		}
	}
}

// SweepIfDue lance une passe de nettoyage si au moins sweepGap s'est écoulé
// depuis la dernière passe. Retourne le nombre de jobs supprimés.
func (s *RetentionSweeper) SweepIfDue(ctx context.Context, now time.Time) int64 {
	s.mu.Lock()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.sweepGap {
		s.mu.Unlock()
		return 0
	}
	s.lastRun = now
	s.mu.Unlock()

	deleted, err := s.jobService.CleanupOldJobs(ctx, s.retention)
	if err != nil {
		log.Printf("Retention sweep error: %v", err)
		return 0
	}

	// Un id balayé doit répondre not-found: on retire aussi son statut caché
	if s.invalidator != nil {
		for _, id := range deleted {
			if err := s.invalidator.DeleteStatus(ctx, id); err != nil {
				log.Printf("Failed to drop cached status for swept job %s: %v", id, err)
			}
		}
	}

	if len(deleted) > 0 {
		log.Printf("Retention sweep completed: %d jobs removed", len(deleted))
	}

	return int64(len(deleted))
}

func (s *RetentionSweeper) Stop() {
	close(s.stopCh)
}
