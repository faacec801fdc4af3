package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/sirupsen/logrus"
)

// Ошибки валидации вложений; каждая проверка независима от остальных
var (
	ErrUnsupportedImageType = errors.New("only JPEG, PNG, GIF, and WebP images are allowed")
	ErrImageTooLarge        = errors.New("file size must be less than 10MB")
	ErrTooManyImages        = errors.New("incident already has the maximum number of images")
)

// ImageRepository определяет контракт для работы с бд метаданных вложений
type ImageRepository interface {
	Create(ctx context.Context, image *models.IncidentImage) error
	ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentImage, error)
	CountByIncident(ctx context.Context, incidentID uuid.UUID) (int, error)
}

// ObjectStorage определяет контракт объектного хранилища файлов вложений
type ObjectStorage interface {
	Upload(ctx context.Context, key, mimeType string, data io.Reader, size int64) error
	Remove(ctx context.Context, keys ...string) error
	// PublicURL - чистый вывод публичного URL из ключа, без сетевого вызова
	PublicURL(key string) string
}

// EvidenceFile - один загружаемый файл вложения
type EvidenceFile struct {
	Name     string
	Size     int64
	MimeType string
	Data     io.Reader
}

// UploadFailure - причина отказа по одному файлу при пакетной загрузке
type UploadFailure struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// EvidenceService определяет контракт для работы с вложениями инцидентов
type EvidenceService interface {
	Validate(ctx context.Context, incidentID uuid.UUID, file EvidenceFile) error
	Upload(ctx context.Context, incidentID uuid.UUID, file EvidenceFile) (*models.IncidentImage, error)
	// List деградирует до пустого списка при ошибке коллаборатора, как и списки инцидентов
	List(ctx context.Context, incidentID uuid.UUID) []*models.IncidentImage
	RemoveBlobs(ctx context.Context, paths []string) error
	ResolveURL(path string) string
}

type evidenceService struct {
	images  ImageRepository
	storage ObjectStorage
	logger  *logrus.Logger
}

func NewEvidenceService(images ImageRepository, storage ObjectStorage, logger *logrus.Logger) EvidenceService {
	return &evidenceService{
		images:  images,
		storage: storage,
		logger:  logger,
	}
}

// Validate проверяет один файл: тип, размер и лимит вложений на инцидент
func (s *evidenceService) Validate(ctx context.Context, incidentID uuid.UUID, file EvidenceFile) error {
	if !models.AllowedImageMimeTypes[file.MimeType] {
		return ErrUnsupportedImageType
	}

	if file.Size > models.MaxImageSize {
		return ErrImageTooLarge
	}

	count, err := s.images.CountByIncident(ctx, incidentID)
	if err != nil {
		return fmt.Errorf("service: could not count incident images: %w", err)
	}
	if count >= models.MaxImagesPerIncident {
		return ErrTooManyImages
	}

	return nil
}

// Upload загружает файл в хранилище и сохраняет строку метаданных.
// Два последовательных шага: если метаданные не записались после успешной загрузки,
// файл остается осиротевшим, а операция целиком отдает ошибку вызывающему.
func (s *evidenceService) Upload(ctx context.Context, incidentID uuid.UUID, file EvidenceFile) (*models.IncidentImage, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "evidence",
		"method":      "Upload",
		"incident_id": incidentID,
		"file_name":   file.Name,
	})

	if err := s.Validate(ctx, incidentID, file); err != nil {
		return nil, err
	}

	key := storageKey(incidentID, file.Name)

	if err := s.storage.Upload(ctx, key, file.MimeType, file.Data, file.Size); err != nil {
		log.WithError(err).Error("Failed to upload evidence blob")
		return nil, fmt.Errorf("service: could not upload image: %w", err)
	}

	image := &models.IncidentImage{
		IncidentID: incidentID,
		FilePath:   key,
		FileName:   file.Name,
		FileSize:   file.Size,
		MimeType:   file.MimeType,
	}
	if err := s.images.Create(ctx, image); err != nil {
		log.WithError(err).WithField("file_path", key).Error("Failed to save image metadata, blob is orphaned")
		return nil, fmt.Errorf("service: could not save image metadata: %w", err)
	}

	log.WithField("image_id", image.ID).Info("Evidence image uploaded successfully")
	return image, nil
}

// List возвращает метаданные вложений инцидента
func (s *evidenceService) List(ctx context.Context, incidentID uuid.UUID) []*models.IncidentImage {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "evidence",
		"method":      "List",
		"incident_id": incidentID,
	})

	images, err := s.images.ListByIncident(ctx, incidentID)
	if err != nil {
		// Путь чтения: ошибку съедаем, логируем и показываем пустой список
		log.WithError(err).Error("Failed to list incident images from repository")
		return []*models.IncidentImage{}
	}
	return images
}

// RemoveBlobs удаляет файлы вложений из хранилища по ключам
func (s *evidenceService) RemoveBlobs(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := s.storage.Remove(ctx, paths...); err != nil {
		return fmt.Errorf("service: could not remove evidence blobs: %w", err)
	}
	return nil
}

// ResolveURL выводит публичный URL вложения из ключа хранилища
func (s *evidenceService) ResolveURL(path string) string {
	return s.storage.PublicURL(path)
}

// storageKey строит устойчивый к коллизиям ключ: <incident-id>/<unix-ms>-<случайный суффикс><расширение>
func storageKey(incidentID uuid.UUID, fileName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s/%d-%s%s", incidentID, time.Now().UnixMilli(), suffix, filepath.Ext(fileName))
}
