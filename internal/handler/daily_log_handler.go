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

// DailyLogHandler handles the per-student daily log.
type DailyLogHandler struct {
	dailyLogService *service.DailyLogService
	log             zerolog.Logger
}

// NewDailyLogHandler creates a new DailyLogHandler.
func NewDailyLogHandler(dailyLogService *service.DailyLogService, log zerolog.Logger) *DailyLogHandler {
	return &DailyLogHandler{
		dailyLogService: dailyLogService,
		log:             log.With().Str("component", "daily_log_handler").Logger(),
	}
}

// ListDailyLogs godoc
// GET /api/v1/daily-logs?student_id=&class_id=&date=&page=&per_page=
// Newest first.
func (h *DailyLogHandler) ListDailyLogs(c *gin.Context) {
	studentID, ok := queryIntPtr(c, "student_id")
	if !ok {
		return
	}
	classID, ok := queryIntPtr(c, "class_id")
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	filter := model.DailyLogFilter{StudentID: studentID, ClassID: classID, Date: date}
	page, perPage, limit, offset := pagination(c)
	logs, total, err := h.dailyLogService.List(c.Request.Context(), middleware.GetViewer(c), filter, limit, offset)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"daily_logs": logs}, response.NewPagination(page, perPage, total))
}

// GetDailyLog godoc
// GET /api/v1/daily-logs/:id
func (h *DailyLogHandler) GetDailyLog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	l, err := h.dailyLogService.Get(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"daily_log": l})
}

// CreateDailyLog godoc
// POST /api/v1/daily-logs
// The caller is recorded as author; guardians are notified.
func (h *DailyLogHandler) CreateDailyLog(c *gin.Context) {
	var req model.DailyLogRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	l, err := h.dailyLogService.Create(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"daily_log": l})
}

// UpdateDailyLog godoc
// PUT /api/v1/daily-logs/:id
func (h *DailyLogHandler) UpdateDailyLog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.DailyLogRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	l, err := h.dailyLogService.Update(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"daily_log": l})
}

// DeleteDailyLog godoc
// DELETE /api/v1/daily-logs/:id
func (h *DailyLogHandler) DeleteDailyLog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.dailyLogService.Delete(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "registro removido"})
}
