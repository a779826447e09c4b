package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/crecheapp/creche-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StudentHandler handles students, their guardians, authorized pickups and roster spreadsheets.
type StudentHandler struct {
	studentService *service.StudentService
	rosterService  *service.RosterService
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, rosterService *service.RosterService, maxUploadBytes int64, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		rosterService:  rosterService,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/v1/students?class_id=&search=&active=&page=&per_page=
// Guardians only receive their own children.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	classID, ok := queryIntPtr(c, "class_id")
	if !ok {
		return
	}
	filter := model.StudentFilter{
		ClassID:    classID,
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: queryBool(c, "active"),
	}

	page, perPage, limit, offset := pagination(c)
	students, total, err := h.studentService.List(c.Request.Context(), middleware.GetViewer(c), filter, limit, offset)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, response.NewPagination(page, perPage, total))
}

// GetStudent godoc
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.StudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), middleware.GetViewer(c), &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.StudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), middleware.GetViewer(c), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "aluno removido"})
}

// ─── Guardians ──────────────────────────────────────────────────────

// ListGuardians godoc
// GET /api/v1/students/:id/guardians
func (h *StudentHandler) ListGuardians(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	guardians, err := h.studentService.ListGuardians(c.Request.Context(), middleware.GetViewer(c), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"guardians": guardians})
}

// LinkGuardian godoc
// POST /api/v1/students/:id/guardians
// Links an existing guardian profile or provisions a new one. A generated temporary
// password is returned once.
func (h *StudentHandler) LinkGuardian(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.LinkGuardianRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.studentService.LinkGuardian(c.Request.Context(), middleware.GetViewer(c), id, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// UpdateGuardian godoc
// PUT /api/v1/students/:id/guardians/:profile_id
func (h *StudentHandler) UpdateGuardian(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profileID, ok := paramID(c, "profile_id")
	if !ok {
		return
	}

	var req model.UpdateGuardianRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.UpdateGuardianLink(c.Request.Context(), middleware.GetViewer(c), id, profileID, &req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// UnlinkGuardian godoc
// DELETE /api/v1/students/:id/guardians/:profile_id
func (h *StudentHandler) UnlinkGuardian(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profileID, ok := paramID(c, "profile_id")
	if !ok {
		return
	}

	student, err := h.studentService.UnlinkGuardian(c.Request.Context(), middleware.GetViewer(c), id, profileID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// UpdatePickups godoc
// PUT /api/v1/students/:id/pickups
// Replaces the list of people authorized to collect the student.
func (h *StudentHandler) UpdatePickups(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePickupsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.UpdatePickups(c.Request.Context(), middleware.GetViewer(c), id, req.Pickups)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// ─── Roster spreadsheets ────────────────────────────────────────────

// ExportStudents godoc
// GET /api/v1/students/export?class_id=
// Streams the roster of a class, or of the whole institution, as XLSX.
func (h *StudentHandler) ExportStudents(c *gin.Context) {
	classID, ok := queryIntPtr(c, "class_id")
	if !ok {
		return
	}

	buf, err := h.rosterService.Export(c.Request.Context(), middleware.GetViewer(c), classID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	name := "alunos"
	if classID != nil {
		name = fmt.Sprintf("alunos-turma-%d", *classID)
	}
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format(model.DateLayout))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportStudents godoc
// POST /api/v1/students/import (multipart: file, class_id)
// Imports every row of the sheet into the class, or nothing when a row is invalid.
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	classID, ok := formIntPtr(c, "class_id")
	if !ok {
		return
	}
	if classID == nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"class_id": "campo obrigatório"})
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	result, err := h.rosterService.Import(c.Request.Context(), middleware.GetViewer(c), *classID, file)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}
