package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/service"
)

const (
	// ChangeChannel - канал Redis, в который публикуется событие при каждой мутации таблицы инцидентов.
	// Подписчики не читают payload, а перечитывают список целиком.
	ChangeChannel = "incidents:changes"
)

type changeEvent struct {
	Action     string    `json:"action"`
	IncidentID uuid.UUID `json:"incident_id"`
}

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	history, err := json.Marshal(incident.StatusHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal status history: %w", err)
	}

	query := `
		INSERT INTO incidents (reporter_id, reporter_email, title, category, location, description, status, created_at, last_updated_at, status_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id;
	`
	err = r.db.QueryRow(ctx, query,
		incident.ReporterID,
		incident.ReporterEmail,
		incident.Title,
		incident.Category,
		incident.Location,
		incident.Description,
		incident.Status,
		incident.CreatedAt,
		incident.LastUpdatedAt,
		history,
	).Scan(&incident.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	r.publishChange(ctx, "INSERT", incident.ID)
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `
		SELECT id, reporter_id, reporter_email, title, category, location, description, status, created_at, last_updated_at, status_history
		FROM incidents
		WHERE id = $1;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// ListAll возвращает все инциденты, отсортированные по времени создания (новые первыми)
func (r *IncidentRepository) ListAll(ctx context.Context) ([]*models.Incident, error) {
	query := `
		SELECT id, reporter_id, reporter_email, title, category, location, description, status, created_at, last_updated_at, status_history
		FROM incidents
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

// ListByReporter возвращает инциденты одного заявителя, новые первыми
func (r *IncidentRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*models.Incident, error) {
	query := `
		SELECT id, reporter_id, reporter_email, title, category, location, description, status, created_at, last_updated_at, status_history
		FROM incidents
		WHERE reporter_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, reporterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents by reporter: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

// UpdateStatus сохраняет новый статус, отметку времени и дополненный журнал статусов
func (r *IncidentRepository) UpdateStatus(ctx context.Context, incident *models.Incident) error {
	history, err := json.Marshal(incident.StatusHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal status history: %w", err)
	}

	query := `
		UPDATE incidents SET
			status = $1,
			last_updated_at = $2,
			status_history = $3
		WHERE id = $4;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Status,
		incident.LastUpdatedAt,
		history,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident status: %w", err)
	}

	// Проверка, было ли обновление хоть одной строки, если RowsAffected() == 0, значит инцидента с таким id не существует
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for update: %w", incident.ID, models.ErrIncidentNotFound)
	}

	r.publishChange(ctx, "UPDATE", incident.ID)
	return nil
}

// Delete удаляет инцидент навсегда; строки вложений удаляются каскадно на уровне схемы
func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM incidents WHERE id = $1;`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for delete: %w", id, models.ErrIncidentNotFound)
	}

	r.publishChange(ctx, "DELETE", id)
	return nil
}

// publishChange публикует событие изменения таблицы инцидентов.
// Ошибка публикации не роняет мутацию: подписчики при следующем событии все равно перечитают свежий список.
func (r *IncidentRepository) publishChange(ctx context.Context, action string, id uuid.UUID) {
	payload, err := json.Marshal(changeEvent{Action: action, IncidentID: id})
	if err != nil {
		return
	}
	_ = r.redisClient.Publish(ctx, ChangeChannel, payload).Err()
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	var history []byte
	err := row.Scan(
		&incident.ID,
		&incident.ReporterID,
		&incident.ReporterEmail,
		&incident.Title,
		&incident.Category,
		&incident.Location,
		&incident.Description,
		&incident.Status,
		&incident.CreatedAt,
		&incident.LastUpdatedAt,
		&history,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &incident.StatusHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status history: %w", err)
	}
	return incident, nil
}

func collectIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}
