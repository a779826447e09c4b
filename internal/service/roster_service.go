package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// RosterSheet is the sheet name used for exported rosters.
const RosterSheet = "Alunos"

var rosterHeader = []interface{}{
	"Nome", "Data de nascimento", "Sexo", "Turma", "Alergias", "Responsáveis", "Telefone responsável financeiro", "Ativo",
}

// Accepted birth date layouts in imported sheets.
var importDateLayouts = []string{model.DateLayout, "02/01/2006", "01-02-06"}

// ImportResult summarizes a roster import.
type ImportResult struct {
	ClassID  int `json:"class_id"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// RosterService exports and imports student rosters as XLSX spreadsheets.
type RosterService struct {
	tx          repository.Transactor
	studentRepo repository.StudentRepository
	classRepo   repository.ClassRepository
	log         zerolog.Logger
}

// NewRosterService creates a new RosterService.
func NewRosterService(tx repository.Transactor, studentRepo repository.StudentRepository, classRepo repository.ClassRepository, log zerolog.Logger) *RosterService {
	return &RosterService{
		tx:          tx,
		studentRepo: studentRepo,
		classRepo:   classRepo,
		log:         log.With().Str("component", "roster_service").Logger(),
	}
}

// Export writes the students of a class (or of the whole institution when classID is nil)
// to an XLSX workbook.
func (s *RosterService) Export(ctx context.Context, viewer model.Viewer, classID *int) (*bytes.Buffer, error) {
	if classID != nil {
		if _, err := s.classRepo.GetByID(ctx, viewer.InstitutionID, *classID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidClass
			}
			return nil, err
		}
	}

	students, _, err := s.studentRepo.List(ctx, viewer.InstitutionID, model.StudentFilter{ClassID: classID}, 0, 0)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Error closing workbook")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), RosterSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(RosterSheet, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(RosterSheet, 1, 1, style); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(RosterSheet, "A", "H", 22); err != nil {
		return nil, fmt.Errorf("set width: %w", err)
	}

	for i, st := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := rosterRow(&st)
		if err := f.SetSheetRow(RosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func rosterRow(st *model.Student) []interface{} {
	names := make([]string, 0, len(st.Guardians))
	financialPhone := ""
	for _, g := range st.Guardians {
		names = append(names, fmt.Sprintf("%s (%s)", g.Name, g.Relationship))
		if g.FinancialResponsible && financialPhone == "" {
			financialPhone = g.Phone
		}
	}
	active := "Não"
	if st.Active {
		active = "Sim"
	}
	return []interface{}{
		st.Name, st.BirthDate.String(), string(st.Gender), st.ClassName, st.Allergies,
		strings.Join(names, "; "), financialPhone, active,
	}
}

// Import reads students from the first sheet of an XLSX workbook into a class. Columns are
// name, birth date, gender and allergies; the first row is a header. Either every row is
// imported or none is.
func (s *RosterService) Import(ctx context.Context, viewer model.Viewer, classID int, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Error closing workbook")
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidSpreadsheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}

	result := &ImportResult{ClassID: classID}
	students, rowErrs := parseRoster(rows, viewer.InstitutionID, classID, result)
	if len(rowErrs) > 0 {
		return nil, &ImportError{Rows: rowErrs}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.classRepo.GetByIDForUpdate(ctx, viewer.InstitutionID, classID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidClass
			}
			return err
		}
		if len(students) == 0 {
			return nil
		}
		if c.Capacity > 0 && c.StudentCount+len(students) > c.Capacity {
			return ErrClassFull
		}
		n, err := s.studentRepo.CreateBatch(ctx, students)
		if err != nil {
			return err
		}
		result.Imported = int(n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("class_id", classID).Int("count", result.Imported).Msg("Roster imported")
	return result, nil
}

func parseRoster(rows [][]string, institutionID, classID int, result *ImportResult) ([]model.Student, map[int]string) {
	students := []model.Student{}
	rowErrs := map[int]string{}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		line := i + 1
		name := cell(row, 0)
		birth := cell(row, 1)
		if name == "" && birth == "" {
			result.Skipped++
			continue
		}
		if name == "" {
			rowErrs[line] = "nome obrigatório"
			continue
		}

		date, ok := parseImportDate(birth)
		if !ok {
			rowErrs[line] = fmt.Sprintf("data de nascimento inválida: %q", birth)
			continue
		}
		gender, ok := parseGender(cell(row, 2))
		if !ok {
			rowErrs[line] = fmt.Sprintf("sexo inválido: %q", cell(row, 2))
			continue
		}

		cid := classID
		students = append(students, model.Student{
			InstitutionID: institutionID,
			ClassID:       &cid,
			Name:          name,
			BirthDate:     date,
			Gender:        gender,
			Allergies:     cell(row, 3),
			Active:        true,
		})
	}
	return students, rowErrs
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseImportDate(v string) (model.Date, bool) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return model.NewDate(t), true
		}
	}
	return model.Date{}, false
}

func parseGender(v string) (model.Gender, bool) {
	switch strings.ToUpper(v) {
	case "":
		return "", true
	case "M", "MASCULINO":
		return model.GenderMale, true
	case "F", "FEMININO":
		return model.GenderFemale, true
	}
	return "", false
}
