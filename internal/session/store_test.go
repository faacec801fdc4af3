package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	return NewFileStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestFileStore_SaveAndCurrent(t *testing.T) {
	// Подготовка
	store := newTestStore(t)
	user := &models.User{ID: uuid.New(), Email: "jane@example.com", Role: models.RoleReporter}

	// Действие
	require.NoError(t, store.Save(user))
	current := store.Current()

	// Проверки
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, user.Email, current.Email)
	assert.Equal(t, user.Role, current.Role)
}

func TestFileStore_Current_NoSession(t *testing.T) {
	// Подготовка
	store := newTestStore(t)

	// Действие и проверки: отсутствие файла - не залогинен, не ошибка
	assert.Nil(t, store.Current())
}

func TestFileStore_Current_CorruptFile(t *testing.T) {
	// Подготовка
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	// Действие и проверки: порченый файл читается как отсутствие сессии
	assert.Nil(t, store.Current())
}

func TestFileStore_SaveOverwritesPrevious(t *testing.T) {
	// Подготовка
	store := newTestStore(t)
	first := &models.User{ID: uuid.New(), Email: "first@example.com", Role: models.RoleReporter}
	second := &models.User{ID: uuid.New(), Email: "admin@mail.com", Role: models.RoleAdmin}

	// Действие: одна активная сессия, вторая затирает первую
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	// Проверки
	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, second.Email, current.Email)
	assert.True(t, current.IsAdmin())
}

func TestFileStore_Clear(t *testing.T) {
	// Подготовка
	store := newTestStore(t)
	require.NoError(t, store.Save(&models.User{ID: uuid.New(), Email: "jane@example.com"}))

	// Действие
	require.NoError(t, store.Clear())

	// Проверки
	assert.Nil(t, store.Current())
}

func TestFileStore_Clear_Idempotent(t *testing.T) {
	// Подготовка
	store := newTestStore(t)

	// Действие и проверки: очистка без сессии не ошибка
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}
