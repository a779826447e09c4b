package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Fakes ──────────────────────────────────────────────────────────

type fakeNotificationRepo struct {
	mu        sync.Mutex
	failBatch bool
	failFor   map[int]error // by institution id
	// unknown recipients fail their whole job with a foreign key error
	unknown map[int]bool
	nextID  int
	stored  []model.Notification
}

func (r *fakeNotificationRepo) InsertJobs(_ context.Context, jobs []model.NotificationJob) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failBatch && len(jobs) > 1 {
		return nil, errors.New("batch aborted")
	}
	var out []model.Notification
	for _, j := range jobs {
		if err := r.failFor[j.InstitutionID]; err != nil {
			return nil, err
		}
		for _, id := range j.RecipientIDs {
			if r.unknown[id] {
				return nil, repository.ErrReferenced
			}
		}
		for _, id := range j.RecipientIDs {
			r.nextID++
			out = append(out, model.Notification{ID: r.nextID, InstitutionID: j.InstitutionID, RecipientID: id, Title: j.Title, Kind: j.Kind})
		}
	}
	r.stored = append(r.stored, out...)
	return out, nil
}

func (r *fakeNotificationRepo) List(context.Context, int, bool, int, int) ([]model.Notification, int, error) {
	return nil, 0, nil
}
func (r *fakeNotificationRepo) UnreadCount(context.Context, int) (int, error) { return 0, nil }
func (r *fakeNotificationRepo) MarkRead(context.Context, int, int) error      { return nil }
func (r *fakeNotificationRepo) MarkAllRead(context.Context, int) (int64, error) {
	return 0, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []model.Notification
}

func (p *fakePublisher) Publish(_ context.Context, ns []model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, ns...)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func pushJob(t *testing.T, rdb *redis.Client, job model.NotificationJob) {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.NotificationQueue, data).Err())
}

// ─── NotificationWorker ─────────────────────────────────────────────

func TestNotificationWorker_StoresAndPublishesQueuedJobs(t *testing.T) {
	rdb := newRedis(t)
	repo := &fakeNotificationRepo{}
	pub := &fakePublisher{}

	w := NewNotificationWorker(rdb, repo, pub, zerolog.Nop())
	w.batchTimeout = 10 * time.Millisecond

	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.NotificationQueue, "{not json").Err())
	pushJob(t, rdb, model.NotificationJob{InstitutionID: 1, RecipientIDs: []int{10, 11}, Title: "Registro diário", Kind: model.NotificationDailyLog})
	pushJob(t, rdb, model.NotificationJob{InstitutionID: 1, RecipientIDs: []int{12}, Title: "Ocorrência", Kind: model.NotificationIncident})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return pub.count() == 3 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	n, err := rdb.LLen(context.Background(), config.WorkerKey.NotificationQueue).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotificationWorker_FallbackDropsAndRequeues(t *testing.T) {
	rdb := newRedis(t)
	repo := &fakeNotificationRepo{
		failBatch: true,
		failFor: map[int]error{
			2: repository.ErrReferenced,
			3: errors.New("connection reset"),
		},
	}
	pub := &fakePublisher{}

	w := NewNotificationWorker(rdb, repo, pub, zerolog.Nop())
	w.retryDelay = 0

	w.flushSafe(context.Background(), []model.NotificationJob{
		{InstitutionID: 1, RecipientIDs: []int{10}, Title: "ok"},
		{InstitutionID: 2, RecipientIDs: []int{99}, Title: "gone"},
		{InstitutionID: 3, RecipientIDs: []int{30}, Title: "retry"},
	})

	require.Equal(t, 1, pub.count())
	assert.Equal(t, 10, pub.published[0].RecipientID)

	queued, err := rdb.LRange(context.Background(), config.WorkerKey.NotificationQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, queued, 1)

	var job model.NotificationJob
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &job))
	assert.Equal(t, 3, job.InstitutionID)
	assert.Equal(t, "retry", job.Title)
}

func TestNotificationWorker_FallbackKeepsValidRecipients(t *testing.T) {
	rdb := newRedis(t)
	repo := &fakeNotificationRepo{unknown: map[int]bool{11: true}}
	pub := &fakePublisher{}

	w := NewNotificationWorker(rdb, repo, pub, zerolog.Nop())
	w.retryDelay = 0

	w.flushSafe(context.Background(), []model.NotificationJob{
		{InstitutionID: 1, RecipientIDs: []int{10, 11, 12}, Title: "Reunião de pais"},
	})

	require.Equal(t, 2, pub.count())
	assert.Equal(t, 10, pub.published[0].RecipientID)
	assert.Equal(t, 12, pub.published[1].RecipientID)

	n, err := rdb.LLen(context.Background(), config.WorkerKey.NotificationQueue).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "a vanished recipient is not retried")
}

func TestNotificationWorker_ShutdownFlushesBuffer(t *testing.T) {
	rdb := newRedis(t)
	repo := &fakeNotificationRepo{}
	pub := &fakePublisher{}

	w := NewNotificationWorker(rdb, repo, pub, zerolog.Nop())
	w.shutdown([]model.NotificationJob{{InstitutionID: 1, RecipientIDs: []int{5, 6}, Title: "Festa junina"}})

	assert.Equal(t, 2, pub.count())
}

// ─── ReminderScheduler ──────────────────────────────────────────────

type fakeInstitutionRepo struct {
	institutions []model.Institution
	listErr      error
}

func (r *fakeInstitutionRepo) GetByID(_ context.Context, id int) (*model.Institution, error) {
	for i := range r.institutions {
		if r.institutions[i].ID == id {
			return &r.institutions[i], nil
		}
	}
	return nil, repository.ErrNotFound
}
func (r *fakeInstitutionRepo) List(context.Context) ([]model.Institution, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.institutions, nil
}
func (r *fakeInstitutionRepo) Create(context.Context, *model.Institution) error { return nil }
func (r *fakeInstitutionRepo) Update(context.Context, *model.Institution) error { return nil }

type fakeReminderSource struct {
	calls   []int
	failFor int
}

func (s *fakeReminderSource) VaccinationReminderJobs(_ context.Context, institutionID int, _ model.Date, days int) ([]model.NotificationJob, error) {
	s.calls = append(s.calls, institutionID)
	if institutionID == s.failFor {
		return nil, errors.New("query failed")
	}
	return []model.NotificationJob{
		{InstitutionID: institutionID, RecipientIDs: []int{institutionID * 100}, Title: "Vacina próxima", Kind: model.NotificationVaccine},
	}, nil
}

type fakeNotifier struct {
	jobs []model.NotificationJob
}

func (n *fakeNotifier) Enqueue(_ context.Context, job model.NotificationJob) error {
	n.jobs = append(n.jobs, job)
	return nil
}

func newScheduler(t *testing.T, source *fakeReminderSource, notifier *fakeNotifier) *ReminderScheduler {
	s, _ := newSchedulerWithInstitutions(t, source, notifier)
	return s
}

func newSchedulerWithInstitutions(t *testing.T, source *fakeReminderSource, notifier *fakeNotifier) (*ReminderScheduler, *fakeInstitutionRepo) {
	cfg := &config.Config{ReminderHour: 7, VaccineReminderDays: 7}
	insts := &fakeInstitutionRepo{institutions: []model.Institution{{ID: 1}, {ID: 2}, {ID: 3}}}
	return NewReminderScheduler(cfg, newRedis(t), insts, source, notifier, zerolog.Nop()), insts
}

func TestReminderScheduler_RunsOncePerDayAtHour(t *testing.T) {
	source := &fakeReminderSource{}
	notifier := &fakeNotifier{}
	s := newScheduler(t, source, notifier)
	ctx := context.Background()

	s.now = func() time.Time { return time.Date(2026, 5, 4, 6, 59, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Empty(t, notifier.jobs, "before the hour")

	s.now = func() time.Time { return time.Date(2026, 5, 4, 7, 0, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Len(t, notifier.jobs, 3)

	s.now = func() time.Time { return time.Date(2026, 5, 4, 7, 1, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Len(t, notifier.jobs, 3, "same day runs once")

	s.now = func() time.Time { return time.Date(2026, 5, 5, 7, 0, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Len(t, notifier.jobs, 6, "next day runs again")
}

func TestReminderScheduler_ContinuesAfterInstitutionFailure(t *testing.T) {
	source := &fakeReminderSource{failFor: 2}
	notifier := &fakeNotifier{}
	s := newScheduler(t, source, notifier)

	queued, err := s.RunOnce(context.Background(), model.NewDate(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, 2, queued)
	assert.Equal(t, []int{1, 2, 3}, source.calls)
	require.Len(t, notifier.jobs, 2)
	assert.Equal(t, []int{100}, notifier.jobs[0].RecipientIDs)
	assert.Equal(t, []int{300}, notifier.jobs[1].RecipientIDs)
}

func TestReminderScheduler_RetriesAfterFailedRun(t *testing.T) {
	source := &fakeReminderSource{}
	notifier := &fakeNotifier{}
	s, insts := newSchedulerWithInstitutions(t, source, notifier)
	ctx := context.Background()

	insts.listErr = errors.New("database unavailable")
	s.now = func() time.Time { return time.Date(2026, 5, 4, 7, 0, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Empty(t, notifier.jobs)

	insts.listErr = nil
	s.now = func() time.Time { return time.Date(2026, 5, 4, 7, 1, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Len(t, notifier.jobs, 3, "failed run does not use up the day")

	s.now = func() time.Time { return time.Date(2026, 5, 4, 7, 2, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Len(t, notifier.jobs, 3)
}
