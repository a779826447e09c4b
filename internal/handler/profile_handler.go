package handler

import (
	"net/http"
	"strings"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/crecheapp/creche-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ProfileHandler manages staff and guardian accounts.
type ProfileHandler struct {
	profileService *service.ProfileService
	log            zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		log:            log.With().Str("component", "profile_handler").Logger(),
	}
}

// ListProfiles godoc
// GET /api/v1/profiles?role=&search=&page=&per_page=
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	filter := model.ProfileFilter{
		Role:   model.Role(strings.ToUpper(c.Query("role"))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if filter.Role != "" && !filter.Role.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"role": "papel inválido"})
		return
	}

	page, perPage, limit, offset := pagination(c)
	profiles, total, err := h.profileService.List(c.Request.Context(), middleware.GetViewer(c), filter, limit, offset)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"profiles": profiles}, response.NewPagination(page, perPage, total))
}

// GetProfile godoc
// GET /api/v1/profiles/:id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}

// CreateProfile godoc
// POST /api/v1/profiles
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req model.CreateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	profile, err := h.profileService.Create(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"profile": profile})
}

// UpdateProfile godoc
// PUT /api/v1/profiles/:id
// An empty password keeps the current one.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}

// DeleteProfile godoc
// DELETE /api/v1/profiles/:id
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.Delete(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "perfil removido"})
}
