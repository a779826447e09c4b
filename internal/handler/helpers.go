package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// errorStatus maps a service sentinel to its HTTP status and error code.
var errorStatus = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrInactiveProfile, http.StatusForbidden, response.ErrAccountDisabled},
	{service.ErrWrongPassword, http.StatusBadRequest, response.ErrWrongPassword},
	{service.ErrSelfDelete, http.StatusForbidden, response.ErrActionForbidden},
	{service.ErrNoFinancialGuardian, http.StatusUnprocessableEntity, response.ErrNoFinancialGuardian},
	{service.ErrGuardianAlreadyLinked, http.StatusConflict, response.ErrGuardianAlreadyLinked},
	{service.ErrGuardianNotLinked, http.StatusNotFound, response.ErrGuardianNotLinked},
	{service.ErrNotGuardianProfile, http.StatusUnprocessableEntity, response.ErrNotGuardianProfile},
	{service.ErrGuardianStillLinked, http.StatusConflict, response.ErrGuardianStillLinked},
	{service.ErrInvalidTeacher, http.StatusUnprocessableEntity, response.ErrInvalidTeacher},
	{service.ErrInvalidClass, http.StatusUnprocessableEntity, response.ErrInvalidClass},
	{service.ErrInvalidStudent, http.StatusUnprocessableEntity, response.ErrInvalidStudent},
	{service.ErrInvalidEvent, http.StatusUnprocessableEntity, response.ErrInvalidEvent},
	{service.ErrClassFull, http.StatusConflict, response.ErrClassFull},
	{service.ErrClassInUse, http.StatusConflict, response.ErrDependencyExists},
	{service.ErrInvalidDate, http.StatusBadRequest, response.ErrInvalidDate},
	{service.ErrInvalidDateRange, http.StatusBadRequest, response.ErrInvalidRange},
	{service.ErrInvalidSpreadsheet, http.StatusBadRequest, response.ErrInvalidSpreadsheet},
	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
	{service.ErrClassNameTaken, http.StatusConflict, response.ErrClassNameTaken},
	// Constraint violations no service translated.
	{service.ErrDuplicate, http.StatusConflict, response.ErrConflict},
	{service.ErrReferenced, http.StatusConflict, response.ErrDependencyExists},
}

// failWithError writes the envelope for a service error. Unknown errors are logged
// and reported as INTERNAL_ERROR.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	var importErr *service.ImportError
	if errors.As(err, &importErr) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidSpreadsheet, importFields(importErr))
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			response.Fail(c, e.status, e.code)
			return
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", response.RequestID(c)).Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

func importFields(err *service.ImportError) map[string]string {
	rows := make([]int, 0, len(err.Rows))
	for r := range err.Rows {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	fields := make(map[string]string, len(rows))
	for _, r := range rows {
		fields[fmt.Sprintf("linha_%d", r)] = err.Rows[r]
	}
	return fields
}

// paramID reads a positive integer path parameter, writing INVALID_ID when it is not one.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// pagination reads ?page and ?per_page and returns them with the derived limit and offset.
func pagination(c *gin.Context) (page, perPage, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, perPage, (page - 1) * perPage
}

// queryIntPtr reads an optional positive integer query parameter.
func queryIntPtr(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{name: "deve ser um número inteiro positivo"})
		return nil, false
	}
	return &v, true
}

// formIntPtr reads an optional positive integer multipart form field.
func formIntPtr(c *gin.Context, name string) (*int, bool) {
	raw := c.PostForm(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{name: "deve ser um número inteiro positivo"})
		return nil, false
	}
	return &v, true
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (*model.Date, bool) {
	d, err := model.ParseOptionalDate(c.Query(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidDate)
		return nil, false
	}
	return d, true
}

// queryTime reads an optional RFC 3339 timestamp or YYYY-MM-DD date query parameter.
func queryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidDate)
		return time.Time{}, false
	}
	return d.Time, true
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}
