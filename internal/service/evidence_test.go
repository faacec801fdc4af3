package service_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/service"
	"github.com/shenikar/incident_watch/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestEvidenceService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestEvidenceService(t *testing.T) (service.EvidenceService, *mocks.MockImageRepository, *mocks.MockObjectStorage) {
	ctrl := gomock.NewController(t)
	imagesMock := mocks.NewMockImageRepository(ctrl)
	storageMock := mocks.NewMockObjectStorage(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	return service.NewEvidenceService(imagesMock, storageMock, logger), imagesMock, storageMock
}

func TestValidate_RejectsUnsupportedMimeType(t *testing.T) {
	// Подготовка
	svc, imagesMock, _ := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания: проверка типа не доходит до бд
	imagesMock.EXPECT().CountByIncident(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := svc.Validate(ctx, incidentID, service.EvidenceFile{Name: "doc.pdf", MimeType: "application/pdf", Size: 100})

	// Проверки
	assert.ErrorIs(t, err, service.ErrUnsupportedImageType)
}

func TestValidate_RejectsOversizedFile(t *testing.T) {
	// Подготовка
	svc, imagesMock, _ := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	imagesMock.EXPECT().CountByIncident(gomock.Any(), gomock.Any()).Times(0)

	// Действие: ровно на байт больше лимита
	err := svc.Validate(ctx, incidentID, service.EvidenceFile{
		Name:     "big.png",
		MimeType: "image/png",
		Size:     models.MaxImageSize + 1,
	})

	// Проверки
	assert.ErrorIs(t, err, service.ErrImageTooLarge)
}

func TestValidate_RejectsEleventhImage(t *testing.T) {
	// Подготовка
	svc, imagesMock, _ := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	imagesMock.EXPECT().CountByIncident(ctx, incidentID).Return(models.MaxImagesPerIncident, nil).Times(1)

	// Действие: файл сам по себе корректный, отказ только из-за лимита
	err := svc.Validate(ctx, incidentID, service.EvidenceFile{Name: "ok.png", MimeType: "image/png", Size: 100})

	// Проверки
	assert.ErrorIs(t, err, service.ErrTooManyImages)
}

func TestValidate_AcceptsBoundaryValues(t *testing.T) {
	// Подготовка
	svc, imagesMock, _ := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания: девять существующих вложений, десятое еще допустимо
	imagesMock.EXPECT().CountByIncident(ctx, incidentID).Return(models.MaxImagesPerIncident-1, nil).Times(1)

	// Действие: размер ровно на границе лимита
	err := svc.Validate(ctx, incidentID, service.EvidenceFile{
		Name:     "ok.webp",
		MimeType: "image/webp",
		Size:     models.MaxImageSize,
	})

	// Проверки
	require.NoError(t, err)
}

func TestUpload_Success(t *testing.T) {
	// Подготовка
	svc, imagesMock, storageMock := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	data := strings.NewReader("png bytes")
	file := service.EvidenceFile{Name: "photo.png", MimeType: "image/png", Size: 9, Data: data}

	var uploadedKey string

	// Ожидания
	imagesMock.EXPECT().CountByIncident(ctx, incidentID).Return(0, nil).Times(1)
	storageMock.EXPECT().
		Upload(ctx, gomock.Any(), "image/png", data, int64(9)).
		DoAndReturn(func(ctx context.Context, key, mimeType string, _ any, _ int64) error {
			uploadedKey = key
			return nil
		}).Times(1)
	imagesMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, image *models.IncidentImage) error {
			image.ID = uuid.New()
			return nil
		}).Times(1)

	// Действие
	image, err := svc.Upload(ctx, incidentID, file)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, incidentID, image.IncidentID)
	assert.Equal(t, "photo.png", image.FileName)
	assert.Equal(t, uploadedKey, image.FilePath)
	// Ключ: <incident-id>/<метка>-<суффикс>.png
	assert.True(t, strings.HasPrefix(uploadedKey, incidentID.String()+"/"))
	assert.True(t, strings.HasSuffix(uploadedKey, ".png"))
}

func TestUpload_ValidationFailure_SkipsStorage(t *testing.T) {
	// Подготовка
	svc, _, storageMock := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	storageMock.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	image, err := svc.Upload(ctx, incidentID, service.EvidenceFile{Name: "v.mp4", MimeType: "video/mp4", Size: 100})

	// Проверки
	assert.ErrorIs(t, err, service.ErrUnsupportedImageType)
	assert.Nil(t, image)
}

func TestUpload_StorageError_Propagates(t *testing.T) {
	// Подготовка
	svc, imagesMock, storageMock := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания: метаданные не пишутся при сбое хранилища
	imagesMock.EXPECT().CountByIncident(ctx, incidentID).Return(0, nil).Times(1)
	storageMock.EXPECT().
		Upload(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("хранилище недоступно")).Times(1)
	imagesMock.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	image, err := svc.Upload(ctx, incidentID, service.EvidenceFile{Name: "ok.png", MimeType: "image/png", Size: 100})

	// Проверки
	require.Error(t, err)
	assert.Nil(t, image)
	assert.ErrorContains(t, err, "could not upload image")
}

func TestUpload_MetadataError_Propagates(t *testing.T) {
	// Подготовка
	svc, imagesMock, storageMock := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания: файл уже в хранилище, строка метаданных не записалась
	imagesMock.EXPECT().CountByIncident(ctx, incidentID).Return(0, nil).Times(1)
	storageMock.EXPECT().Upload(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	imagesMock.EXPECT().Create(ctx, gomock.Any()).Return(fmt.Errorf("бд недоступна")).Times(1)

	// Действие
	image, err := svc.Upload(ctx, incidentID, service.EvidenceFile{Name: "ok.png", MimeType: "image/png", Size: 100})

	// Проверки
	require.Error(t, err)
	assert.Nil(t, image)
	assert.ErrorContains(t, err, "could not save image metadata")
}

func TestList_RepoError_DegradesToEmpty(t *testing.T) {
	// Подготовка
	svc, imagesMock, _ := newTestEvidenceService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	imagesMock.EXPECT().ListByIncident(ctx, incidentID).Return(nil, fmt.Errorf("бд недоступна")).Times(1)

	// Действие
	images := svc.List(ctx, incidentID)

	// Проверки
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestRemoveBlobs_EmptyList_NoCall(t *testing.T) {
	// Подготовка
	svc, _, storageMock := newTestEvidenceService(t)
	ctx := context.Background()

	// Ожидания
	storageMock.EXPECT().Remove(gomock.Any(), gomock.Any()).Times(0)

	// Действие и проверки
	require.NoError(t, svc.RemoveBlobs(ctx, nil))
}

func TestRemoveBlobs_PassesAllKeys(t *testing.T) {
	// Подготовка
	svc, _, storageMock := newTestEvidenceService(t)
	ctx := context.Background()

	// Ожидания
	storageMock.EXPECT().Remove(ctx, "a/1.png", "a/2.png").Return(nil).Times(1)

	// Действие и проверки
	require.NoError(t, svc.RemoveBlobs(ctx, []string{"a/1.png", "a/2.png"}))
}

func TestResolveURL_DelegatesToStorage(t *testing.T) {
	// Подготовка
	svc, _, storageMock := newTestEvidenceService(t)

	// Ожидания
	storageMock.EXPECT().PublicURL("a/1.png").Return("https://cdn.example.com/a/1.png").Times(1)

	// Действие и проверки
	assert.Equal(t, "https://cdn.example.com/a/1.png", svc.ResolveURL("a/1.png"))
}
