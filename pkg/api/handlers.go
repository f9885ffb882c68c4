package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"immerseforge-site/pkg/content"
	"immerseforge-site/pkg/forms"
	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/models"
	"immerseforge-site/pkg/services"
)

// DefaultMaxUploadBytes caps a talent application body when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// ContentSource serves the published website content. *content.Store satisfies it.
type ContentSource interface {
	Current() *content.Snapshot
	Page(name string) (json.RawMessage, error)
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	applications   services.ApplicationService
	contacts       services.ContactService
	content        ContentSource
	maxUploadBytes int64
	logger         logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	applications services.ApplicationService,
	contacts services.ContactService,
	source ContentSource,
	maxUploadBytes int64,
	log logger.Logger,
) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handlers{
		applications:   applications,
		contacts:       contacts,
		content:        source,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// MethodNotAllowed answers requests whose path exists under another method.
func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// HandleTalentApplication accepts the multipart talent form, validates it and
// relays it. Relay failures still answer 200.
func (h *Handlers) HandleTalentApplication(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("Application body too large", logger.Int64("limit_bytes", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
			return
		}
		log.Warn("Error parsing multipart form", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form data"})
		return
	}
	defer func() { _ = form.RemoveAll() }()

	app, files, err := forms.ParseTalentApplication(form)
	if err != nil {
		log.Warn("Error reading application fields", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form data"})
		return
	}

	if err := forms.ValidateTalentApplication(app, files); err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		h.internalError(c, err)
		return
	}

	result, err := h.applications.SubmitApplication(c.Request.Context(), app, files)
	if err != nil {
		h.internalError(c, err)
		return
	}

	log.Info("Application accepted",
		logger.String("submission_id", result.ID),
		logger.String("status", string(result.Status)),
	)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Application submitted successfully",
	})
}

func (h *Handlers) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to process application",
		"message": err.Error(),
	})
}

// HandleContact relays a contact page inquiry to Formspree.
func (h *Handlers) HandleContact(c *gin.Context) {
	var msg models.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	err := h.contacts.SubmitContact(c.Request.Context(), msg)
	var verr *forms.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, services.ErrRelayFailed):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
	}
}

// HandleWebsiteContent serves the whole content document with an ETag.
func (h *Handlers) HandleWebsiteContent(c *gin.Context) {
	snap := h.content.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Content not available"})
		return
	}

	c.Header("ETag", snap.ETag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == snap.ETag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", snap.Raw)
}

// HandlePageContent serves one page section of the content document.
func (h *Handlers) HandlePageContent(c *gin.Context) {
	page, err := h.content.Page(c.Param("page"))
	switch {
	case errors.Is(err, content.ErrNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Content not available"})
	case errors.Is(err, content.ErrUnknownPage):
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load page"})
	default:
		c.Data(http.StatusOK, "application/json; charset=utf-8", page)
	}
}

// HandleFormOptions lists the choices the talent form offers.
func (h *Handlers) HandleFormOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"positions":    models.PositionOptions,
		"availability": models.AvailabilityOptions,
		"skills":       models.SkillOptions,
	})
}
