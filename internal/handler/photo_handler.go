package handler

import (
	"net/http"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PhotoHandler handles the photo album.
type PhotoHandler struct {
	photoService *service.PhotoService
	log          zerolog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photoService *service.PhotoService, log zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		log:          log.With().Str("component", "photo_handler").Logger(),
	}
}

// ListPhotos godoc
// GET /api/v1/photos?class_id=&event_id=&page=&per_page=
func (h *PhotoHandler) ListPhotos(c *gin.Context) {
	classID, ok := queryIntPtr(c, "class_id")
	if !ok {
		return
	}
	eventID, ok := queryIntPtr(c, "event_id")
	if !ok {
		return
	}

	page, perPage, limit, offset := pagination(c)
	photos, total, err := h.photoService.List(c.Request.Context(), middleware.GetViewer(c), model.PhotoFilter{ClassID: classID, EventID: eventID}, limit, offset)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"photos": photos}, response.NewPagination(page, perPage, total))
}

// UploadPhoto godoc
// POST /api/v1/photos (multipart: file, class_id, event_id, caption)
// Stores an image and records it in the album.
func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	classID, ok := formIntPtr(c, "class_id")
	if !ok {
		return
	}
	eventID, ok := formIntPtr(c, "event_id")
	if !ok {
		return
	}
	caption := c.PostForm("caption")
	if len(caption) > 500 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"caption": "deve ter no máximo 500 caracteres"})
		return
	}

	photo, err := h.photoService.Upload(c.Request.Context(), middleware.GetViewer(c), file, header, service.PhotoUpload{
		ClassID: classID,
		EventID: eventID,
		Caption: caption,
	})
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"photo": photo})
}

// DeletePhoto godoc
// DELETE /api/v1/photos/:id
func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.photoService.Delete(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "foto removida"})
}
