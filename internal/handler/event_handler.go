package handler

import (
	"net/http"
	"time"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/crecheapp/creche-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// defaultEventWindow is the listing window when ?to is omitted.
const defaultEventWindow = 31 * 24 * time.Hour

// EventHandler serves the institution calendar.
type EventHandler struct {
	eventService *service.EventService
	loc          *time.Location
	log          zerolog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *service.EventService, loc *time.Location, log zerolog.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		loc:          loc,
		log:          log.With().Str("component", "event_handler").Logger(),
	}
}

// ListEvents godoc
// GET /api/v1/events?from=&to=&class_id=
// Events overlapping [from, to]; defaults to the next 31 days from today.
func (h *EventHandler) ListEvents(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	classID, ok := queryIntPtr(c, "class_id")
	if !ok {
		return
	}

	if from.IsZero() {
		from, _ = model.NewDate(time.Now().In(h.loc)).Bounds(h.loc)
	}
	if to.IsZero() {
		to = from.Add(defaultEventWindow)
	}
	if to.Before(from) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRange)
		return
	}

	events, err := h.eventService.List(c.Request.Context(), middleware.GetViewer(c), model.EventFilter{From: from, To: to, ClassID: classID})
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// GetEvent godoc
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	e, err := h.eventService.Get(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"event": e})
}

// CreateEvent godoc
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.EventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.eventService.Create(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"event": e})
}

// UpdateEvent godoc
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.EventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	e, err := h.eventService.Update(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"event": e})
}

// DeleteEvent godoc
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "evento removido"})
}
