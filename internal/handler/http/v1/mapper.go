package v1

import (
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/service"
)

// ModelToUserResponse преобразует доменную модель пользователя в DTO для ответа
func ModelToUserResponse(model *models.User) *UserResponse {
	return &UserResponse{
		ID:    model.ID,
		Email: model.Email,
		Role:  string(model.Role),
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	history := make([]StatusUpdateResponse, len(model.StatusHistory))
	for i, update := range model.StatusHistory {
		history[i] = StatusUpdateResponse{
			Status:    string(update.Status),
			ChangedAt: update.ChangedAt,
			Note:      update.Note,
		}
	}

	return &IncidentResponse{
		ID:            model.ID,
		ReporterID:    model.ReporterID,
		ReporterEmail: model.ReporterEmail,
		Title:         model.Title,
		Category:      model.Category,
		Location:      model.Location,
		Description:   model.Description,
		Status:        string(model.Status),
		CreatedAt:     model.CreatedAt,
		LastUpdatedAt: model.LastUpdatedAt,
		StatusHistory: history,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToImageResponse преобразует метаданные вложения в DTO, дополняя публичным URL
func ModelToImageResponse(model *models.IncidentImage, url string) *ImageResponse {
	return &ImageResponse{
		ID:         model.ID,
		IncidentID: model.IncidentID,
		FileName:   model.FileName,
		FileSize:   model.FileSize,
		MimeType:   model.MimeType,
		UploadedAt: model.UploadedAt,
		URL:        url,
	}
}

// FailuresToResponses преобразует отказы пакетной загрузки в DTO
func FailuresToResponses(failures []service.UploadFailure) []UploadFailureResponse {
	if len(failures) == 0 {
		return nil
	}
	responses := make([]UploadFailureResponse, len(failures))
	for i, failure := range failures {
		responses[i] = UploadFailureResponse{
			FileName: failure.FileName,
			Reason:   failure.Reason,
		}
	}
	return responses
}
