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

// HealthHandler serves medication schedules, incidents and vaccination records.
type HealthHandler struct {
	healthService *service.HealthService
	log           zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(healthService *service.HealthService, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		log:           log.With().Str("component", "health_handler").Logger(),
	}
}

// ─── Medications ────────────────────────────────────────────────────

// ListMedications godoc
// GET /api/v1/medications?student_id=
func (h *HealthHandler) ListMedications(c *gin.Context) {
	studentID, ok := queryIntPtr(c, "student_id")
	if !ok {
		return
	}

	meds, err := h.healthService.ListMedications(c.Request.Context(), middleware.GetViewer(c), studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"medications": meds})
}

// DueMedications godoc
// GET /api/v1/medications/due?date=
// Active schedules covering the date (today by default), ordered by dose time.
func (h *HealthHandler) DueMedications(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	day := h.healthService.Today()
	if date != nil {
		day = *date
	}

	meds, err := h.healthService.DueMedications(c.Request.Context(), middleware.GetViewer(c), day)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"date": day, "medications": meds})
}

// GetMedication godoc
// GET /api/v1/medications/:id
func (h *HealthHandler) GetMedication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	m, err := h.healthService.GetMedication(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"medication": m})
}

// CreateMedication godoc
// POST /api/v1/medications
func (h *HealthHandler) CreateMedication(c *gin.Context) {
	var req model.MedicationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	m, err := h.healthService.CreateMedication(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"medication": m})
}

// UpdateMedication godoc
// PUT /api/v1/medications/:id
func (h *HealthHandler) UpdateMedication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.MedicationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	m, err := h.healthService.UpdateMedication(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"medication": m})
}

// DeleteMedication godoc
// DELETE /api/v1/medications/:id
func (h *HealthHandler) DeleteMedication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.healthService.DeleteMedication(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "medicação removida"})
}

// ─── Incidents ──────────────────────────────────────────────────────

// ListIncidents godoc
// GET /api/v1/incidents?student_id=&page=&per_page=
func (h *HealthHandler) ListIncidents(c *gin.Context) {
	studentID, ok := queryIntPtr(c, "student_id")
	if !ok {
		return
	}

	page, perPage, limit, offset := pagination(c)
	incidents, total, err := h.healthService.ListIncidents(c.Request.Context(), middleware.GetViewer(c), studentID, limit, offset)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"incidents": incidents}, response.NewPagination(page, perPage, total))
}

// GetIncident godoc
// GET /api/v1/incidents/:id
func (h *HealthHandler) GetIncident(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	i, err := h.healthService.GetIncident(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"incident": i})
}

// CreateIncident godoc
// POST /api/v1/incidents
// Guardians of the student are notified.
func (h *HealthHandler) CreateIncident(c *gin.Context) {
	var req model.IncidentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	i, err := h.healthService.CreateIncident(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"incident": i})
}

// UpdateIncident godoc
// PUT /api/v1/incidents/:id
func (h *HealthHandler) UpdateIncident(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.IncidentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	i, err := h.healthService.UpdateIncident(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"incident": i})
}

// DeleteIncident godoc
// DELETE /api/v1/incidents/:id
func (h *HealthHandler) DeleteIncident(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.healthService.DeleteIncident(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "ocorrência removida"})
}

// ─── Vaccinations ───────────────────────────────────────────────────

// ListVaccinations godoc
// GET /api/v1/vaccinations?student_id=
func (h *HealthHandler) ListVaccinations(c *gin.Context) {
	studentID, ok := queryIntPtr(c, "student_id")
	if !ok {
		return
	}

	vs, err := h.healthService.ListVaccinations(c.Request.Context(), middleware.GetViewer(c), studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vaccinations": vs})
}

// OverdueVaccinations godoc
// GET /api/v1/vaccinations/overdue
// Doses not applied whose due date has passed.
func (h *HealthHandler) OverdueVaccinations(c *gin.Context) {
	vs, err := h.healthService.OverdueVaccinations(c.Request.Context(), middleware.GetViewer(c))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vaccinations": vs})
}

// GetVaccination godoc
// GET /api/v1/vaccinations/:id
func (h *HealthHandler) GetVaccination(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	v, err := h.healthService.GetVaccination(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vaccination": v})
}

// CreateVaccination godoc
// POST /api/v1/vaccinations
func (h *HealthHandler) CreateVaccination(c *gin.Context) {
	var req model.VaccinationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	v, err := h.healthService.CreateVaccination(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"vaccination": v})
}

// UpdateVaccination godoc
// PUT /api/v1/vaccinations/:id
func (h *HealthHandler) UpdateVaccination(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.VaccinationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	v, err := h.healthService.UpdateVaccination(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vaccination": v})
}

// DeleteVaccination godoc
// DELETE /api/v1/vaccinations/:id
func (h *HealthHandler) DeleteVaccination(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.healthService.DeleteVaccination(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "vacina removida"})
}
