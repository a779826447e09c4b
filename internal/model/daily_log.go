package model

import "time"

// DailyLogKind classifies a daily log entry.
type DailyLogKind string

const (
	DailyLogFood     DailyLogKind = "ALIMENTACAO"
	DailyLogSleep    DailyLogKind = "SONO"
	DailyLogHygiene  DailyLogKind = "HIGIENE"
	DailyLogActivity DailyLogKind = "ATIVIDADE"
	DailyLogMood     DailyLogKind = "HUMOR"
	DailyLogHealth   DailyLogKind = "SAUDE"
	DailyLogOther    DailyLogKind = "OUTRO"
)

// DailyLog (registro diário) is a timestamped activity entry for a student.
type DailyLog struct {
	ID            int          `json:"id"`
	InstitutionID int          `json:"institution_id"`
	StudentID     int          `json:"student_id"`
	StudentName   string       `json:"student_name,omitempty"`
	AuthorID      *int         `json:"author_id"`
	AuthorName    string       `json:"author_name,omitempty"`
	Kind          DailyLogKind `json:"kind"`
	Description   string       `json:"description"`
	RecordedAt    time.Time    `json:"recorded_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// DailyLogFilter narrows daily log listings.
type DailyLogFilter struct {
	StudentID *int
	ClassID   *int
	Date      *Date
	// StudentIDs, when non-nil, restricts results to these students.
	StudentIDs []int
}

// DailyLogRequest is the payload for creating or updating a daily log.
type DailyLogRequest struct {
	StudentID   int          `json:"student_id" binding:"required,min=1"`
	Kind        DailyLogKind `json:"kind" binding:"required,oneof=ALIMENTACAO SONO HIGIENE ATIVIDADE HUMOR SAUDE OUTRO"`
	Description string       `json:"description" binding:"required,min=1,max=4000"`
	RecordedAt  *time.Time   `json:"recorded_at"`
}

var dailyLogKindLabels = map[DailyLogKind]string{
	DailyLogFood:     "Alimentação",
	DailyLogSleep:    "Sono",
	DailyLogHygiene:  "Higiene",
	DailyLogActivity: "Atividade",
	DailyLogMood:     "Humor",
	DailyLogHealth:   "Saúde",
	DailyLogOther:    "Outro",
}

// Label returns the human readable name of the kind.
func (k DailyLogKind) Label() string {
	if l, ok := dailyLogKindLabels[k]; ok {
		return l
	}
	return string(k)
}
