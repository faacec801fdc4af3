package realtime

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannel = "incidents:changes"

// fakeLister отдает текущее состояние списка под мьютексом; set имитирует запись в бд
type fakeLister struct {
	mu        sync.Mutex
	incidents []*models.Incident
}

func (f *fakeLister) set(incidents []*models.Incident) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incidents = incidents
}

func (f *fakeLister) ListAll(ctx context.Context) []*models.Incident {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incidents
}

func (f *fakeLister) ListOwned(ctx context.Context, reporterID uuid.UUID) []*models.Incident {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := []*models.Incident{}
	for _, incident := range f.incidents {
		if incident.ReporterID == reporterID {
			owned = append(owned, incident)
		}
	}
	return owned
}

func newTestSynchronizer(t *testing.T) (*Synchronizer, *miniredis.Miniredis, *redis.Client, *fakeLister) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	lister := &fakeLister{}
	return NewSynchronizer(client, lister, logger, testChannel), mr, client, lister
}

// receive ждет очередной снимок с таймаутом, чтобы тест не завис
func receive(t *testing.T, snapshots <-chan []*models.Incident) []*models.Incident {
	t.Helper()
	select {
	case snapshot, ok := <-snapshots:
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return snapshot
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribe_InitialSnapshot(t *testing.T) {
	// Подготовка
	syncer, _, _, lister := newTestSynchronizer(t)
	existing := &models.Incident{ID: uuid.New(), Title: "Существующий"}
	lister.set([]*models.Incident{existing})

	// Действие: наблюдатель получает текущее состояние без единого события
	snapshots, cancel := syncer.Subscribe(context.Background(), ScopeAll())
	defer cancel()

	// Проверки
	snapshot := receive(t, snapshots)
	require.Len(t, snapshot, 1)
	assert.Equal(t, existing.ID, snapshot[0].ID)
}

func TestSubscribe_RefetchOnChangeEvent(t *testing.T) {
	// Подготовка
	syncer, _, client, lister := newTestSynchronizer(t)
	lister.set([]*models.Incident{})

	snapshots, cancel := syncer.Subscribe(context.Background(), ScopeAll())
	defer cancel()

	// Стартовый снимок пуст
	assert.Empty(t, receive(t, snapshots))

	// Действие: появление инцидента и событие изменения
	created := &models.Incident{ID: uuid.New(), Title: "Новый"}
	lister.set([]*models.Incident{created})
	require.NoError(t, client.Publish(context.Background(), testChannel, `{"action":"created"}`).Err())

	// Проверки: снимок перечитан целиком
	snapshot := receive(t, snapshots)
	require.Len(t, snapshot, 1)
	assert.Equal(t, created.ID, snapshot[0].ID)
}

func TestSubscribe_ScopeOwnedFiltersByReporter(t *testing.T) {
	// Подготовка
	syncer, _, _, lister := newTestSynchronizer(t)
	reporterID := uuid.New()
	lister.set([]*models.Incident{
		{ID: uuid.New(), ReporterID: reporterID},
		{ID: uuid.New(), ReporterID: uuid.New()},
	})

	// Действие
	snapshots, cancel := syncer.Subscribe(context.Background(), ScopeOwnedBy(reporterID))
	defer cancel()

	// Проверки: чужой инцидент в снимок не попадает
	snapshot := receive(t, snapshots)
	require.Len(t, snapshot, 1)
	assert.Equal(t, reporterID, snapshot[0].ReporterID)
}

func TestSubscribe_CoalescesBurst_NeverStaleAfterFresh(t *testing.T) {
	// Подготовка
	syncer, _, client, lister := newTestSynchronizer(t)
	lister.set([]*models.Incident{})

	snapshots, cancel := syncer.Subscribe(context.Background(), ScopeAll())
	defer cancel()
	assert.Empty(t, receive(t, snapshots))

	// Действие: серия изменений быстрее, чем потребитель читает
	var last *models.Incident
	for i := 0; i < 10; i++ {
		last = &models.Incident{ID: uuid.New(), Title: "Последний"}
		lister.set([]*models.Incident{last})
		require.NoError(t, client.Publish(context.Background(), testChannel, `{"action":"updated"}`).Err())
	}

	// Проверки: промежуточные снимки могут быть пропущены,
	// но итоговое состояние доезжает обязательно
	require.Eventually(t, func() bool {
		select {
		case snapshot := <-snapshots:
			return len(snapshot) == 1 && snapshot[0].ID == last.ID
		default:
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	// Подготовка
	syncer, _, _, lister := newTestSynchronizer(t)
	lister.set([]*models.Incident{})

	snapshots, cancel := syncer.Subscribe(context.Background(), ScopeAll())
	receive(t, snapshots)

	// Действие
	cancel()

	// Проверки: канал снимков закрывается после отмены
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-snapshots:
			return !ok
		default:
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	// Повторная отмена безопасна
	cancel()
}

func TestSubscribe_ContextCancelStopsSubscription(t *testing.T) {
	// Подготовка
	syncer, _, _, lister := newTestSynchronizer(t)
	lister.set([]*models.Incident{})
	ctx, stop := context.WithCancel(context.Background())

	snapshots, cancel := syncer.Subscribe(ctx, ScopeAll())
	defer cancel()
	receive(t, snapshots)

	// Действие
	stop()

	// Проверки
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-snapshots:
			return !ok
		default:
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
}
