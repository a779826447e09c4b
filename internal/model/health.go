package model

import "time"

// MedicationSchedule (medicamento agenda) is a recurring daily dose for a student.
type MedicationSchedule struct {
	ID            int       `json:"id"`
	InstitutionID int       `json:"institution_id"`
	StudentID     int       `json:"student_id"`
	StudentName   string    `json:"student_name,omitempty"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	ScheduleTime  string    `json:"schedule_time"`
	StartsOn      Date      `json:"starts_on"`
	EndsOn        *Date     `json:"ends_on"`
	Instructions  string    `json:"instructions"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CoversDate reports whether the schedule applies on day d.
func (m *MedicationSchedule) CoversDate(d Date) bool {
	if !m.Active || d.Before(m.StartsOn) {
		return false
	}
	return m.EndsOn == nil || !m.EndsOn.Before(d)
}

// MedicationRequest is the payload for creating or updating a medication schedule.
type MedicationRequest struct {
	StudentID    int    `json:"student_id" binding:"required,min=1"`
	Medication   string `json:"medication" binding:"required,min=2,max=120"`
	Dosage       string `json:"dosage" binding:"required,min=1,max=80"`
	ScheduleTime string `json:"schedule_time" binding:"required,datetime=15:04"`
	StartsOn     string `json:"starts_on" binding:"required,datetime=2006-01-02"`
	EndsOn       string `json:"ends_on" binding:"omitempty,datetime=2006-01-02"`
	Instructions string `json:"instructions" binding:"omitempty,max=2000"`
	Active       *bool  `json:"active"`
}

// Severity grades an incident.
type Severity string

const (
	SeverityLow      Severity = "LEVE"
	SeverityModerate Severity = "MODERADA"
	SeveritySevere   Severity = "GRAVE"
)

// Incident (ocorrência) records something that happened to a student.
type Incident struct {
	ID                int       `json:"id"`
	InstitutionID     int       `json:"institution_id"`
	StudentID         int       `json:"student_id"`
	StudentName       string    `json:"student_name,omitempty"`
	AuthorID          *int      `json:"author_id"`
	Kind              string    `json:"kind"`
	Severity          Severity  `json:"severity"`
	Description       string    `json:"description"`
	ActionTaken       string    `json:"action_taken"`
	OccurredAt        time.Time `json:"occurred_at"`
	GuardiansNotified bool      `json:"guardians_notified"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IncidentRequest is the payload for creating or updating an incident.
type IncidentRequest struct {
	StudentID   int        `json:"student_id" binding:"required,min=1"`
	Kind        string     `json:"kind" binding:"required,min=2,max=40"`
	Severity    Severity   `json:"severity" binding:"required,oneof=LEVE MODERADA GRAVE"`
	Description string     `json:"description" binding:"required,min=2,max=4000"`
	ActionTaken string     `json:"action_taken" binding:"omitempty,max=4000"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

// Vaccination (controle de vacina) tracks one dose of a vaccine.
type Vaccination struct {
	ID            int       `json:"id"`
	InstitutionID int       `json:"institution_id"`
	StudentID     int       `json:"student_id"`
	StudentName   string    `json:"student_name,omitempty"`
	Vaccine       string    `json:"vaccine"`
	Dose          string    `json:"dose"`
	AppliedOn     *Date     `json:"applied_on"`
	DueOn         *Date     `json:"due_on"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Overdue reports whether the dose is pending past its due date.
func (v *Vaccination) Overdue(today Date) bool {
	return v.AppliedOn == nil && v.DueOn != nil && v.DueOn.Before(today)
}

// VaccinationRequest is the payload for creating or updating a vaccination record.
type VaccinationRequest struct {
	StudentID int    `json:"student_id" binding:"required,min=1"`
	Vaccine   string `json:"vaccine" binding:"required,min=2,max=120"`
	Dose      string `json:"dose" binding:"omitempty,max=40"`
	AppliedOn string `json:"applied_on" binding:"omitempty,datetime=2006-01-02"`
	DueOn     string `json:"due_on" binding:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes" binding:"omitempty,max=2000"`
}

// HealthFilter narrows health record listings.
type HealthFilter struct {
	StudentID *int
	// StudentIDs, when non-nil, restricts results to these students.
	StudentIDs []int
}
