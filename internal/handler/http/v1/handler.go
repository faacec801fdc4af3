package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/incident_watch/internal/config"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/realtime"
	"github.com/shenikar/incident_watch/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	authService     service.AuthService
	incidentService service.IncidentService
	evidenceService service.EvidenceService
	synchronizer    *realtime.Synchronizer
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(
	authService service.AuthService,
	incidentService service.IncidentService,
	evidenceService service.EvidenceService,
	synchronizer *realtime.Synchronizer,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authService:     authService,
		incidentService: incidentService,
		evidenceService: evidenceService,
		synchronizer:    synchronizer,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// @Summary Log in by email
// @Description Look up or create a user by email and open the session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login request"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.WithError(err).Error("Failed to log in")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelToUserResponse(user))
}

// @Summary Log out
// @Description Clear the active session. No remote effect.
// @Tags Auth
// @Produce json
// @Success 204 "No Content"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	if err := h.authService.Logout(); err != nil {
		h.logger.WithField("method", "logout").WithError(err).Error("Failed to clear session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Current session user
// @Description Return the user of the active session without a network call.
// @Tags Auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string "No active session"
// @Router /auth/me [get]
func (h *Handler) me(c *gin.Context) {
	user := h.authService.CurrentUser()
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, ModelToUserResponse(user))
}

// @Summary Report a new incident
// @Description Create an incident with optional image attachments (multipart form, field "images"). Image failures do not block the incident.
// @Tags Incidents
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Incident title"
// @Param category formData string true "Category from the fixed catalog"
// @Param location formData string true "Location"
// @Param description formData string true "Description, up to 1000 characters"
// @Param images formData file false "Evidence images, up to 10"
// @Success 201 {object} CreateIncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	log := h.logger.WithField("method", "createIncident")
	user := currentUser(c)

	var input CreateIncidentRequest
	if err := c.ShouldBind(&input); err != nil {
		log.WithError(err).Warn("Failed to bind form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files, closers, err := h.collectEvidenceFiles(c)
	if err != nil {
		log.WithError(err).Warn("Failed to read multipart files")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()

	result, err := h.incidentService.Create(c.Request.Context(), service.CreateIncidentInput{
		Title:         input.Title,
		Category:      input.Category,
		Location:      input.Location,
		Description:   input.Description,
		ReporterID:    user.ID,
		ReporterEmail: user.Email,
	}, files)
	if err != nil {
		log.WithError(err).Error("Failed to create incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	images := make([]*ImageResponse, len(result.Images))
	for i, image := range result.Images {
		images[i] = ModelToImageResponse(image, h.evidenceService.ResolveURL(image.FilePath))
	}

	c.JSON(http.StatusCreated, CreateIncidentResponse{
		Incident:     ModelToIncidentResponse(result.Incident),
		Images:       images,
		FailedImages: FailuresToResponses(result.Failed),
	})
}

// collectEvidenceFiles читает файлы поля "images" из multipart-формы
func (h *Handler) collectEvidenceFiles(c *gin.Context) ([]service.EvidenceFile, []io.Closer, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var files []service.EvidenceFile
	var closers []io.Closer
	for _, header := range form.File["images"] {
		opened, err := header.Open()
		if err != nil {
			for _, closer := range closers {
				closer.Close()
			}
			return nil, nil, err
		}
		closers = append(closers, opened)
		files = append(files, service.EvidenceFile{
			Name:     header.Filename,
			Size:     header.Size,
			MimeType: header.Header.Get("Content-Type"),
			Data:     opened,
		})
	}
	return files, closers, nil
}

// @Summary List all incidents
// @Description Admin view over every incident, newest first. Degrades to an empty list on a read failure.
// @Tags Incidents
// @Produce json
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	incidents := h.incidentService.ListAll(c.Request.Context())
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary List own incidents
// @Description Incidents reported by the session user, newest first. Degrades to an empty list on a read failure.
// @Tags Incidents
// @Produce json
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /incidents/my [get]
func (h *Handler) listMyIncidents(c *gin.Context) {
	user := currentUser(c)
	incidents := h.incidentService.ListOwned(c.Request.Context(), user.ID)
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident. Reporters only see their own.
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from service")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}

	user := currentUser(c)
	if !user.IsAdmin() && incident.ReporterID != user.ID {
		// Чужие инциденты для заявителя неотличимы от несуществующих
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}

	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update incident status
// @Description Move an incident to a new status, appending an audit entry. Same-status update is a no-op.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param status body UpdateStatusRequest true "Status update request"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/status [patch]
func (h *Handler) updateIncidentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncidentStatus").WithField("id", id)

	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.incidentService.UpdateStatus(c.Request.Context(), id, models.IncidentStatus(input.Status)); err != nil {
		if errors.Is(err, models.ErrIncidentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.WithError(err).Error("Failed to update incident status in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update incident status"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Delete an incident
// @Description Remove an incident permanently, with its attachments.
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	if err := h.incidentService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrIncidentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.WithError(err).Error("Failed to delete incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete incident"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List incident images
// @Description Attachment metadata with resolved public URLs. Degrades to an empty list on a read failure.
// @Tags Evidence
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {array} ImageResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /incidents/{id}/images [get]
func (h *Handler) listIncidentImages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}

	images := h.evidenceService.List(c.Request.Context(), id)
	responses := make([]*ImageResponse, len(images))
	for i, image := range images {
		responses[i] = ModelToImageResponse(image, h.evidenceService.ResolveURL(image.FilePath))
	}
	c.JSON(http.StatusOK, responses)
}

// @Summary Stream incident snapshots
// @Description Server-sent events with full list snapshots: admins see all incidents, reporters their own. Quick successive changes coalesce into the latest snapshot.
// @Tags Incidents
// @Produce text/event-stream
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /incidents/stream [get]
func (h *Handler) streamIncidents(c *gin.Context) {
	user := currentUser(c)

	scope := realtime.ScopeOwnedBy(user.ID)
	if user.IsAdmin() {
		scope = realtime.ScopeAll()
	}

	snapshots, cancel := h.synchronizer.Subscribe(c.Request.Context(), scope)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		list, ok := <-snapshots
		if !ok {
			return false
		}
		c.SSEvent("snapshot", ModelsToIncidentResponses(list))
		return true
	})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
