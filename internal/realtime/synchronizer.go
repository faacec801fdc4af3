package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/sirupsen/logrus"
)

// Scope определяет, какие инциденты видит подписчик: все (админ) или только свои (заявитель)
type Scope struct {
	All        bool
	ReporterID uuid.UUID
}

func ScopeAll() Scope {
	return Scope{All: true}
}

func ScopeOwnedBy(reporterID uuid.UUID) Scope {
	return Scope{ReporterID: reporterID}
}

// IncidentLister - читающая часть сервиса инцидентов, нужная синхронизатору
type IncidentLister interface {
	ListAll(ctx context.Context) []*models.Incident
	ListOwned(ctx context.Context, reporterID uuid.UUID) []*models.Incident
}

// Synchronizer держит представления наблюдателей в согласии с бд.
// На каждое событие изменения список перечитывается целиком: снимок всегда цельный,
// никогда не частично залатанный, ценой одного полного запроса на событие.
type Synchronizer struct {
	redisClient *redis.Client
	incidents   IncidentLister
	logger      *logrus.Logger
	channel     string
}

func NewSynchronizer(redisClient *redis.Client, incidents IncidentLister, logger *logrus.Logger, channel string) *Synchronizer {
	return &Synchronizer{
		redisClient: redisClient,
		incidents:   incidents,
		logger:      logger,
		channel:     channel,
	}
}

// Subscribe возвращает канал полных снимков и функцию отмены.
// Снимки коалесцируются: при быстрой череде изменений промежуточные состояния могут быть
// пропущены, но устаревший снимок никогда не приходит после более свежего.
// Отмена освобождает подписку; на каждого потребителя - ровно один вызов отмены.
func (s *Synchronizer) Subscribe(ctx context.Context, scope Scope) (<-chan []*models.Incident, func()) {
	pubsub := s.redisClient.Subscribe(ctx, s.channel)
	snapshots := make(chan []*models.Incident, 1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				s.logger.WithError(err).Warn("Failed to close incident change subscription")
			}
		})
	}

	go func() {
		defer close(snapshots)

		// Стартовый снимок, чтобы наблюдатель не ждал первого изменения
		s.push(snapshots, s.fetch(ctx, scope))

		events := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Payload события не читаем - всегда перечитываем список целиком
				s.push(snapshots, s.fetch(ctx, scope))
			}
		}
	}()

	return snapshots, cancel
}

func (s *Synchronizer) fetch(ctx context.Context, scope Scope) []*models.Incident {
	if scope.All {
		return s.incidents.ListAll(ctx)
	}
	return s.incidents.ListOwned(ctx, scope.ReporterID)
}

// push кладет снимок в канал, вытесняя невычитанный устаревший
func (s *Synchronizer) push(snapshots chan []*models.Incident, list []*models.Incident) {
	for {
		select {
		case snapshots <- list:
			return
		default:
			select {
			case <-snapshots:
				// Потребитель не успел за предыдущим снимком - он уже неактуален
			default:
			}
		}
	}
}
