package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shenikar/incident_watch/internal/config"
)

// Client - клиент объектного хранилища вложений.
// Хранилище владеет самими файлами; здесь только загрузка, удаление и вывод публичного URL.
type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.StorageBaseURL, "/"),
		apiKey:  cfg.StorageAPIKey,
		bucket:  cfg.StorageBucket,
		httpClient: &http.Client{
			Timeout: cfg.StorageTimeout,
		},
	}
}

// Upload загружает файл под указанным ключом
func (c *Client) Upload(ctx context.Context, key, mimeType string, data io.Reader, size int64) error {
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, data)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	// Ключи содержат случайный суффикс, перезапись существующего объекта не ожидается
	req.Header.Set("X-Upsert", "false")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage upload for %s returned status %d: %s", key, resp.StatusCode, string(body))
	}
	return nil
}

// Remove удаляет объекты по ключам; останавливается на первой ошибке
func (c *Client) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, key)

		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create remove request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to remove object %s: %w", key, err)
		}
		resp.Body.Close()

		if resp.StatusCode < 200 || (resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound) {
			return fmt.Errorf("storage remove for %s returned status %d", key, resp.StatusCode)
		}
	}
	return nil
}

// PublicURL выводит публичный URL объекта из ключа. Чистая функция, без сетевого вызова.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, key)
}
