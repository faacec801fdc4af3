package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	notifyQueueKey = "notification_events"
)

// Event - письмо, поставленное в очередь на доставку.
// Доставка fire-and-forget: сбой логируется и никогда не откатывает породившую его запись.
type Event struct {
	TemplateID string            `json:"template_id"`
	Recipient  string            `json:"recipient"`
	Params     map[string]string `json:"params"`
	QueuedAt   time.Time         `json:"queued_at"`
}

// Publisher - интерфейс для постановки уведомлений в очередь
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher - реализация Publisher, использующая Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие уведомления в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, notifyQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification event to Redis: %w", err)
	}
	return nil
}
