package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_watch/internal/config"
	"github.com/sirupsen/logrus"
)

// sendRequest - тело запроса к сервису транзакционной почты
type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Worker - структура для обработки очереди и доставки писем
type Worker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
}

// NewWorker создает новый Worker
func NewWorker(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *Worker {
	return &Worker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.NotifyTimeout,
		},
	}
}

// Start запускает горутину для обработки очереди уведомлений
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting notification worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping notification worker.")
				return
			default:
				// BRPop - блокирующее извлечение из правой части списка (очереди)
				// 0 означает бесконечное ожидание
				result, err := w.redisClient.BRPop(ctx, 0, notifyQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue // Контекст отменен, но не ошибка Redis
					}
					w.logger.WithError(err).Error("Failed to pop notification event from Redis")
					time.Sleep(w.cfg.NotifyTimeout) // Ждем перед повторной попыткой
					continue
				}

				// result[0] - ключ, result[1] - значение
				var event Event
				if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
					w.logger.WithError(err).Error("Failed to unmarshal notification event from Redis")
					continue
				}

				w.deliver(ctx, event)
			}
		}
	}()
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	log := w.logger.WithField("template_id", event.TemplateID).WithField("recipient", event.Recipient)
	log.Debug("Delivering notification event...")

	if w.cfg.NotifyAPIURL == "" || w.cfg.NotifyServiceID == "" || w.cfg.NotifyPublicKey == "" {
		log.Warn("Notification service is not configured. Skipping delivery.")
		return
	}

	params := make(map[string]string, len(event.Params)+1)
	for k, v := range event.Params {
		params[k] = v
	}
	params["to_email"] = event.Recipient

	body, err := json.Marshal(sendRequest{
		ServiceID:      w.cfg.NotifyServiceID,
		TemplateID:     event.TemplateID,
		UserID:         w.cfg.NotifyPublicKey,
		TemplateParams: params,
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal send request")
		return
	}

	maxRetries := w.cfg.NotifyMaxRetries
	baseDelay := w.cfg.NotifyBaseDelay

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.NotifyAPIURL, bytes.NewReader(body))
		if err != nil {
			log.WithError(err).Errorf("Failed to create send request. Retries left: %d", maxRetries-1-i)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("Failed to send notification. Retrying in %v. Retries left: %d", baseDelay, maxRetries-1-i)
			time.Sleep(baseDelay)
			baseDelay *= 2 // Экспоненциальная задержка
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			log.Info("Notification delivered successfully.")
			return
		}

		log.Warnf("Notification delivery failed with status code %d. Retrying in %v. Retries left: %d", resp.StatusCode, baseDelay, maxRetries-1-i)
		time.Sleep(baseDelay)
		baseDelay *= 2 // Экспоненциальная задержка
	}

	log.Errorf("Failed to deliver notification after %d retries.", maxRetries)
}
