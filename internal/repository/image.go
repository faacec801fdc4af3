package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/service"
)

type ImageRepository struct {
	db *pgxpool.Pool
}

func NewImageRepository(db *pgxpool.Pool) service.ImageRepository {
	return &ImageRepository{db: db}
}

// Create сохраняет метаданные загруженного вложения
func (r *ImageRepository) Create(ctx context.Context, image *models.IncidentImage) error {
	query := `
		INSERT INTO incident_images (incident_id, file_path, file_name, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, uploaded_at;
	`
	err := r.db.QueryRow(ctx, query,
		image.IncidentID,
		image.FilePath,
		image.FileName,
		image.FileSize,
		image.MimeType,
	).Scan(&image.ID, &image.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to save image metadata: %w", err)
	}
	return nil
}

// ListByIncident возвращает вложения инцидента, новые первыми
func (r *ImageRepository) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentImage, error) {
	query := `
		SELECT id, incident_id, file_path, file_name, file_size, mime_type, uploaded_at
		FROM incident_images
		WHERE incident_id = $1
		ORDER BY uploaded_at DESC;
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident images: %w", err)
	}
	defer rows.Close()

	images := make([]*models.IncidentImage, 0)
	for rows.Next() {
		image := &models.IncidentImage{}
		err := rows.Scan(
			&image.ID,
			&image.IncidentID,
			&image.FilePath,
			&image.FileName,
			&image.FileSize,
			&image.MimeType,
			&image.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error image list iteration: %w", err)
	}
	return images, nil
}

// CountByIncident возвращает число вложений инцидента
func (r *ImageRepository) CountByIncident(ctx context.Context, incidentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM incident_images WHERE incident_id = $1;`
	var count int
	if err := r.db.QueryRow(ctx, query, incidentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incident images: %w", err)
	}
	return count, nil
}
