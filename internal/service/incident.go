package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_watch/internal/config"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/notify"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListAll(ctx context.Context) ([]*models.Incident, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*models.Incident, error)
	UpdateStatus(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateIncidentInput - данные нового инцидента от заявителя
type CreateIncidentInput struct {
	Title         string
	Category      string
	Location      string
	Description   string
	ReporterID    uuid.UUID
	ReporterEmail string
}

// CreateIncidentResult - результат создания с вложениями.
// Инцидент создается первым шагом; сбои загрузки вложений собираются в Failed
// и никогда не откатывают сам инцидент.
type CreateIncidentResult struct {
	Incident *models.Incident
	Images   []*models.IncidentImage
	Failed   []UploadFailure
}

// IncidentService определяет контракт для бизнес-логики жизненного цикла инцидентов
type IncidentService interface {
	Create(ctx context.Context, input CreateIncidentInput, files []EvidenceFile) (*CreateIncidentResult, error)
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	// ListAll и ListOwned деградируют до пустого списка при ошибке коллаборатора:
	// сломанный список не должен ронять просмотр
	ListAll(ctx context.Context) []*models.Incident
	ListOwned(ctx context.Context, reporterID uuid.UUID) []*models.Incident
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus models.IncidentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type incidentService struct {
	repo      IncidentRepository
	evidence  EvidenceService
	publisher notify.Publisher
	logger    *logrus.Logger
	cfg       *config.Config
}

func NewIncidentService(repo IncidentRepository, evidence EvidenceService, publisher notify.Publisher, logger *logrus.Logger, cfg *config.Config) IncidentService {
	return &incidentService{
		repo:      repo,
		evidence:  evidence,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// Create создает инцидент и затем загружает вложения
func (s *incidentService) Create(ctx context.Context, input CreateIncidentInput, files []EvidenceFile) (*CreateIncidentResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "Create",
		"title":    input.Title,
		"reporter": input.ReporterEmail,
	})
	log.Info("Attempting to create a new incident")

	now := time.Now().UTC()
	incident := &models.Incident{
		ReporterID:    input.ReporterID,
		ReporterEmail: input.ReporterEmail,
		Title:         input.Title,
		Category:      input.Category,
		Location:      input.Location,
		Description:   input.Description,
		Status:        models.StatusPending,
		CreatedAt:     now,
		LastUpdatedAt: now,
		StatusHistory: []models.StatusUpdate{
			{Status: models.StatusPending, ChangedAt: now, Note: "Incident reported by user."},
		},
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	log = log.WithField("incident_id", incident.ID)
	log.Info("Incident created successfully")

	result := &CreateIncidentResult{Incident: incident}
	for _, file := range files {
		image, err := s.evidence.Upload(ctx, incident.ID, file)
		if err != nil {
			log.WithError(err).WithField("file_name", file.Name).Warn("Failed to upload evidence file")
			result.Failed = append(result.Failed, UploadFailure{FileName: file.Name, Reason: err.Error()})
			continue
		}
		result.Images = append(result.Images, image)
	}

	s.queueReportAlert(ctx, incident)
	return result, nil
}

// GetIncident получает инцидент по ID
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}
	return incident, nil
}

// ListAll возвращает все инциденты (админский обзор)
func (s *incidentService) ListAll(ctx context.Context) []*models.Incident {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListAll",
	})

	incidents, err := s.repo.ListAll(ctx)
	if err != nil {
		// Путь чтения: ошибку съедаем, логируем и показываем пустой список
		log.WithError(err).Error("Failed to list incidents from repository")
		return []*models.Incident{}
	}
	return incidents
}

// ListOwned возвращает инциденты одного заявителя
func (s *incidentService) ListOwned(ctx context.Context, reporterID uuid.UUID) []*models.Incident {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ListOwned",
		"reporter_id": reporterID,
	})

	incidents, err := s.repo.ListByReporter(ctx, reporterID)
	if err != nil {
		// Путь чтения: ошибку съедаем, логируем и показываем пустой список
		log.WithError(err).Error("Failed to list reporter incidents from repository")
		return []*models.Incident{}
	}
	return incidents
}

// UpdateStatus переводит инцидент в новый статус с записью в журнал.
// Повторный перевод в текущий статус - осознанный no-op: ни записи в журнале, ни сдвига отметки времени.
func (s *incidentService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus models.IncidentStatus) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateStatus",
		"incident_id": id,
		"new_status":  newStatus,
	})
	log.Info("Attempting to update incident status")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update status of a non-existent incident")
		return fmt.Errorf("service: incident with id %s not found for update: %w", id, err)
	}

	if incident.Status == newStatus {
		log.Info("Incident already has the requested status, skipping")
		return nil
	}

	now := time.Now().UTC()
	incident.StatusHistory = append(incident.StatusHistory, models.StatusUpdate{
		Status:    newStatus,
		ChangedAt: now,
		Note:      fmt.Sprintf("Status updated to %s by administration.", newStatus.Human()),
	})
	incident.Status = newStatus
	incident.LastUpdatedAt = now

	if err := s.repo.UpdateStatus(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to update incident status in repository")
		return fmt.Errorf("service: could not update incident status: %w", err)
	}

	log.Info("Incident status updated successfully")
	s.queueStatusUpdate(ctx, incident, newStatus)
	return nil
}

// Delete удаляет инцидент навсегда; файлы вложений убираются из хранилища лучшими усилиями
func (s *incidentService) Delete(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "Delete",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	// Пути файлов собираем до удаления строки: каскад в схеме сотрет метаданные вложений
	images := s.evidence.List(ctx, id)

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete incident in repository")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if len(images) > 0 {
		paths := make([]string, len(images))
		for i, image := range images {
			paths[i] = image.FilePath
		}
		if err := s.evidence.RemoveBlobs(ctx, paths); err != nil {
			// Осиротевший файл хуже, чем несработавшее удаление строки, но инцидент уже удален - только логируем
			log.WithError(err).Warn("Failed to remove evidence blobs for deleted incident")
		}
	}

	log.Info("Incident deleted successfully")
	return nil
}

// queueReportAlert ставит в очередь письмо администраторам о новом инциденте
func (s *incidentService) queueReportAlert(ctx context.Context, incident *models.Incident) {
	if len(s.cfg.AdminEmails) == 0 {
		s.logger.Warn("No admin emails configured. Skipping report alert.")
		return
	}

	event := notify.Event{
		TemplateID: s.cfg.NotifyReportTpl,
		Recipient:  strings.Join(s.cfg.AdminEmails, ","),
		Params: map[string]string{
			"case_ref":       caseRef(incident.ID),
			"incident_title": incident.Title,
			"category":       incident.Category,
			"location":       incident.Location,
			"description":    incident.Description,
			"reporter_email": incident.ReporterEmail,
			"reported_at":    incident.CreatedAt.Format(time.RFC3339),
		},
		QueuedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("incident_id", incident.ID).Error("Failed to queue report alert")
	}
}

// queueStatusUpdate ставит в очередь письмо заявителю о смене статуса
func (s *incidentService) queueStatusUpdate(ctx context.Context, incident *models.Incident, newStatus models.IncidentStatus) {
	if incident.ReporterEmail == "" {
		return
	}

	event := notify.Event{
		TemplateID: s.cfg.NotifyStatusTpl,
		Recipient:  incident.ReporterEmail,
		Params: map[string]string{
			"case_ref":       caseRef(incident.ID),
			"incident_title": incident.Title,
			"location":       incident.Location,
			"new_status":     newStatus.Human(),
		},
		QueuedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("incident_id", incident.ID).Error("Failed to queue status update notification")
	}
}

// caseRef - короткий номер дела для писем, первые 8 символов UUID в верхнем регистре
func caseRef(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
