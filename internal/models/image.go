package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxImageSize - предельный размер одного файла вложения
	MaxImageSize = 10 * 1024 * 1024
	// MaxImagesPerIncident - предельное число вложений на инцидент
	MaxImagesPerIncident = 10
)

// AllowedImageMimeTypes - допустимые типы файлов вложений
var AllowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IncidentImage - метаданные загруженного вложения; сам файл лежит в объектном хранилище
type IncidentImage struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	FilePath   string    `json:"file_path"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
