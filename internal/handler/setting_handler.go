package handler

import (
	"net/http"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/crecheapp/creche-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SettingHandler serves the caller's institution record and its key/value settings.
type SettingHandler struct {
	institutionService *service.InstitutionService
	settingService     *service.SettingService
	log                zerolog.Logger
}

func NewSettingHandler(institutionService *service.InstitutionService, settingService *service.SettingService, log zerolog.Logger) *SettingHandler {
	return &SettingHandler{
		institutionService: institutionService,
		settingService:     settingService,
		log:                log.With().Str("component", "setting_handler").Logger(),
	}
}

// GetInstitution godoc
// GET /api/v1/institution
func (h *SettingHandler) GetInstitution(c *gin.Context) {
	inst, err := h.institutionService.Get(c.Request.Context(), middleware.GetViewer(c))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// UpdateInstitution godoc
// PUT /api/v1/institution
func (h *SettingHandler) UpdateInstitution(c *gin.Context) {
	var req model.UpdateInstitutionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	inst, err := h.institutionService.Update(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// GetAllSettings godoc
// GET /api/v1/settings
func (h *SettingHandler) GetAllSettings(c *gin.Context) {
	settings, err := h.settingService.GetAllSettings(c.Request.Context(), middleware.GetViewer(c).InstitutionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings godoc
// PUT /api/v1/settings
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	institutionID := middleware.GetViewer(c).InstitutionID
	if err := h.settingService.UpdateSettings(c.Request.Context(), institutionID, req.Settings); err != nil {
		failWithError(c, h.log, err)
		return
	}

	settings, err := h.settingService.GetAllSettings(c.Request.Context(), institutionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}
