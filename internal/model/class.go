package model

import "time"

// Shift is the period of the day a class attends.
type Shift string

const (
	ShiftMorning   Shift = "MANHA"
	ShiftAfternoon Shift = "TARDE"
	ShiftFullDay   Shift = "INTEGRAL"
)

// Class (turma) groups students under a teacher.
type Class struct {
	ID            int       `json:"id"`
	InstitutionID int       `json:"institution_id"`
	Name          string    `json:"name"`
	AgeGroup      string    `json:"age_group"`
	Shift         Shift     `json:"shift"`
	Capacity      int       `json:"capacity"`
	TeacherID     *int      `json:"teacher_id"`
	TeacherName   string    `json:"teacher_name,omitempty"`
	StudentCount  int       `json:"student_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClassRequest is the payload for creating or updating a class.
type ClassRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=80"`
	AgeGroup  string `json:"age_group" binding:"omitempty,max=40"`
	Shift     Shift  `json:"shift" binding:"required,oneof=MANHA TARDE INTEGRAL"`
	Capacity  int    `json:"capacity" binding:"min=0,max=200"`
	TeacherID *int   `json:"teacher_id" binding:"omitempty,min=1"`
}
