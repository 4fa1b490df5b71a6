package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"docsmith-worker/internal/jobs"
	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
)

// ProcessorPool borne le nombre de processors simultanés. Les soumissions
// passent par une queue bufferisée; les jobs restés pending (queue pleine,
// redémarrage du process) sont repêchés par le poller.
type ProcessorPool struct {
	jobService jobs.JobService
	processor  *JobProcessor
	config     *PoolConfig

	jobQueue chan *models.DocumentJob
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu       sync.RWMutex
	running  bool
	inflight map[uuid.UUID]struct{}

	jobsTotal   int64
	jobsSuccess int64
	jobsFailed  int64
}

// PoolConfig contient la configuration du pool de processors
type PoolConfig struct {
	ProcessorCount int           // Nombre de processors simultanés
	PollInterval   time.Duration // Intervalle de polling des jobs pending
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		ProcessorCount: 3,
		PollInterval:   5 * time.Second,
	}
}

func NewProcessorPool(jobService jobs.JobService, processor *JobProcessor, config *PoolConfig) *ProcessorPool {
	if config == nil {
		config = DefaultPoolConfig()
	}

	return &ProcessorPool{
		jobService: jobService,
		processor:  processor,
		config:     config,
		jobQueue:   make(chan *models.DocumentJob, config.ProcessorCount*2),
		stopCh:     make(chan struct{}),
		inflight:   make(map[uuid.UUID]struct{}),
	}
}

// Start démarre les processors et le poller de jobs pending
func (p *ProcessorPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	log.Printf("Starting processor pool with %d processors", p.config.ProcessorCount)

	for i := 0; i < p.config.ProcessorCount; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runProcessor(ctx, id)
		}(i)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runPendingPoller(ctx)
	}()

	p.running = true
	return nil
}

// Stop arrête le pool et attend la fin des jobs en cours
func (p *ProcessorPool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	log.Println("Stopping processor pool...")

	close(p.stopCh)
	close(p.jobQueue)
	p.wg.Wait()

	log.Println("Processor pool stopped")
	return nil
}

// Submit met un job en queue sans bloquer l'appelant. Si la queue est
// pleine ou le pool arrêté, le job reste pending et sera repris par le
// poller.
func (p *ProcessorPool) Submit(job *models.DocumentJob) {
	if !p.markInflight(job.ID) {
		return
	}

	if !p.enqueue(job) {
		p.clearInflight(job.ID)
		log.Printf("Processor queue unavailable, job %s left pending for the poller", job.ID)
	}
}

// enqueue tient le verrou pendant l'envoi: Stop ne peut pas fermer la
// queue entre le test du flag running et le send.
func (p *ProcessorPool) enqueue(job *models.DocumentJob) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return false
	}

	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

func (p *ProcessorPool) runProcessor(ctx context.Context, id int) {
	log.Printf("Processor %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Processor %d stopped due to context cancellation", id)
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				log.Printf("Processor %d stopped - queue closed", id)
				return
			}

			atomic.AddInt64(&p.jobsTotal, 1)
			result := p.processor.ProcessJob(ctx, job)
			if result.Success {
				atomic.AddInt64(&p.jobsSuccess, 1)
			} else {
				atomic.AddInt64(&p.jobsFailed, 1)
			}
			p.clearInflight(job.ID)
		}
	}
}

// runPendingPoller repêche régulièrement les jobs pending laissés de côté
func (p *ProcessorPool) runPendingPoller(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	log.Printf("Pending-job poller started (interval: %v)", p.config.PollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Pending-job poller stopped due to context cancellation")
			return
		case <-p.stopCh:
			log.Println("Pending-job poller stopped")
			return
		case <-ticker.C:
			if err := p.pollPendingJobs(ctx); err != nil {
				log.Printf("Error polling pending jobs: %v", err)
			}
		}
	}
}

func (p *ProcessorPool) pollPendingJobs(ctx context.Context) error {
	pendingJobs, err := p.jobService.ListJobs(ctx, string(models.StatusPending), 0)
	if err != nil {
		return err
	}

	for _, job := range pendingJobs {
		if !p.markInflight(job.ID) {
			continue // déjà en queue ou en cours
		}

		if !p.enqueue(job) {
			p.clearInflight(job.ID)
			return nil // queue pleine ou pool arrêté, on réessaiera
		}
		log.Printf("Pending job %s re-queued for processing", job.ID)
	}

	return nil
}

func (p *ProcessorPool) markInflight(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.inflight[id]; exists {
		return false
	}
	p.inflight[id] = struct{}{}
	return true
}

func (p *ProcessorPool) clearInflight(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, id)
}

// PoolStats contient les statistiques du pool
type PoolStats struct {
	ProcessorCount int   `json:"processor_count"`
	QueueSize      int   `json:"queue_size"`
	QueueCapacity  int   `json:"queue_capacity"`
	Running        bool  `json:"running"`
	JobsTotal      int64 `json:"jobs_total"`
	JobsSuccess    int64 `json:"jobs_success"`
	JobsFailed     int64 `json:"jobs_failed"`
}

// GetStats retourne les statistiques du pool
func (p *ProcessorPool) GetStats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PoolStats{
		ProcessorCount: p.config.ProcessorCount,
		QueueSize:      len(p.jobQueue),
		QueueCapacity:  cap(p.jobQueue),
		Running:        p.running,
		JobsTotal:      atomic.LoadInt64(&p.jobsTotal),
		JobsSuccess:    atomic.LoadInt64(&p.jobsSuccess),
		JobsFailed:     atomic.LoadInt64(&p.jobsFailed),
	}
}
