package v1

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest DTO для входа по email
// @Description DTO для входа по email
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// UserResponse DTO для ответа с данными пользователя
// @Description DTO для ответа с данными пользователя
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// CreateIncidentRequest DTO для создания инцидента (поля multipart-формы)
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Title       string `form:"title" validate:"required,min=2,max=255"`
	Category    string `form:"category" validate:"required,oneof=Theft Assault Burglary Vandalism Fraud Harassment Other"`
	Location    string `form:"location" validate:"required,min=2,max=255"`
	Description string `form:"description" validate:"required,max=1000"`
}

// UpdateStatusRequest DTO для перевода инцидента в новый статус
// @Description DTO для перевода инцидента в новый статус
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING UNDER_INVESTIGATION RESOLVED"`
}

// StatusUpdateResponse DTO для записи журнала статусов
// @Description DTO для записи журнала статусов
type StatusUpdateResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	Note      string    `json:"note,omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID            uuid.UUID              `json:"id"`
	ReporterID    uuid.UUID              `json:"reporter_id"`
	ReporterEmail string                 `json:"reporter_email"`
	Title         string                 `json:"title"`
	Category      string                 `json:"category"`
	Location      string                 `json:"location"`
	Description   string                 `json:"description"`
	Status        string                 `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	LastUpdatedAt time.Time              `json:"last_updated_at"`
	StatusHistory []StatusUpdateResponse `json:"status_history"`
}

// ImageResponse DTO для ответа с метаданными вложения
// @Description DTO для ответа с метаданными вложения
type ImageResponse struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
	URL        string    `json:"url"`
}

// UploadFailureResponse DTO для отказа по одному файлу вложения
// @Description DTO для отказа по одному файлу вложения
type UploadFailureResponse struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// CreateIncidentResponse DTO для ответа на создание инцидента с вложениями
// @Description DTO для ответа на создание инцидента с вложениями
type CreateIncidentResponse struct {
	Incident     *IncidentResponse       `json:"incident"`
	Images       []*ImageResponse        `json:"images"`
	FailedImages []UploadFailureResponse `json:"failed_images,omitempty"`
}
