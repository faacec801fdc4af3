package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/shenikar/incident_watch/internal/models"
)

// FileStore хранит одну активную сессию - сериализованную запись пользователя - в локальном файле.
// Это не граница безопасности: отсутствие или порча файла читается как "не залогинен", а не как ошибка.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save сохраняет пользователя как активную сессию
func (s *FileStore) Save(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Current возвращает пользователя из сессии без сетевого вызова.
// nil - сессии нет или файл не разбирается.
func (s *FileStore) Current() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	user := &models.User{}
	if err := json.Unmarshal(payload, user); err != nil {
		return nil
	}
	return user
}

// Clear удаляет сессию; никакого удаленного эффекта у выхода нет
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
