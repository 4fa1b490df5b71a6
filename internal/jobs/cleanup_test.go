package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sweepRecorder enregistre les passes de nettoyage demandées au service
type sweepRecorder struct {
	JobService
	calls   int
	maxAges []time.Duration
}

func (r *sweepRecorder) CleanupOldJobs(ctx context.Context, maxAge time.Duration) ([]uuid.UUID, error) {
	r.calls++
	r.maxAges = append(r.maxAges, maxAge)
	return []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}, nil
}

// cacheRecorder enregistre les invalidations de statut demandées
type cacheRecorder struct {
	ids []uuid.UUID
}

func (c *cacheRecorder) DeleteStatus(ctx context.Context, jobID uuid.UUID) error {
	c.ids = append(c.ids, jobID)
	return nil
}

func TestSweeperRunsOnlyAfterGap(t *testing.T) {
	recorder := &sweepRecorder{}
	sweeper := NewRetentionSweeper(recorder, nil, 15*time.Minute, 24*time.Hour, 7*24*time.Hour)

	now := time.Now()

	// Première passe: rien n'a encore tourné, on nettoie
	deleted := sweeper.SweepIfDue(context.Background(), now)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 1, recorder.calls)

	// Tick suivant (15 minutes plus tard): le gap de 24h n'est pas écoulé
	deleted = sweeper.SweepIfDue(context.Background(), now.Add(15*time.Minute))
	assert.Equal(t, int64(0), deleted)
	assert.Equal(t, 1, recorder.calls)

	// 24h plus tard: nouvelle passe
	deleted = sweeper.SweepIfDue(context.Background(), now.Add(24*time.Hour))
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 2, recorder.calls)
}

func TestSweeperUsesRetentionWindow(t *testing.T) {
	recorder := &sweepRecorder{}
	sweeper := NewRetentionSweeper(recorder, nil, time.Minute, time.Hour, 7*24*time.Hour)

	sweeper.SweepIfDue(context.Background(), time.Now())

	require.Len(t, recorder.maxAges, 1)
	assert.Equal(t, 7*24*time.Hour, recorder.maxAges[0])
}

func TestSweeperDeletesExpiredJobs(t *testing.T) {
	svc := NewMemoryJobService()
	ctx := context.Background()

	fresh, err := svc.CreateJob(ctx, "fresh")
	require.NoError(t, err)

	// Vieillir artificiellement un job au-delà de la fenêtre de rétention
	expired := backdateJob(t, svc, "expired", 8*24*time.Hour)

	sweeper := NewRetentionSweeper(svc, nil, time.Minute, time.Hour, 7*24*time.Hour)
	deleted := sweeper.SweepIfDue(ctx, time.Now())
	assert.Equal(t, int64(1), deleted)

	gone, err := svc.GetJob(ctx, expired)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := svc.GetJob(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestSweeperDropsCachedStatuses(t *testing.T) {
	svc := NewMemoryJobService()
	ctx := context.Background()

	kept, err := svc.CreateJob(ctx, "fresh")
	require.NoError(t, err)
	expired := backdateJob(t, svc, "expired", 8*24*time.Hour)

	invalidator := &cacheRecorder{}
	sweeper := NewRetentionSweeper(svc, invalidator, time.Minute, time.Hour, 7*24*time.Hour)
	sweeper.SweepIfDue(ctx, time.Now())

	// Chaque job balayé voit son statut caché invalidé, et seulement ceux-là
	require.Len(t, invalidator.ids, 1)
	assert.Equal(t, expired, invalidator.ids[0])
	assert.NotContains(t, invalidator.ids, kept.ID)
}

func backdateJob(t *testing.T, svc JobService, prompt string, age time.Duration) uuid.UUID {
	t.Helper()

	mem, ok := svc.(*memoryJobService)
	require.True(t, ok)

	job, err := svc.CreateJob(context.Background(), prompt)
	require.NoError(t, err)

	mem.mu.Lock()
	mem.jobs[job.ID].CreatedAt = time.Now().Add(-age)
	mem.mu.Unlock()

	return job.ID
}
