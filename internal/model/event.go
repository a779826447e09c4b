package model

import "time"

// Event is a calendar entry. A nil ClassID means it concerns the whole institution.
type Event struct {
	ID            int       `json:"id"`
	InstitutionID int       `json:"institution_id"`
	ClassID       *int      `json:"class_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Kind          string    `json:"kind"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	AllDay        bool      `json:"all_day"`
	CreatedBy     *int      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EventFilter selects events overlapping [From, To].
type EventFilter struct {
	From    time.Time
	To      time.Time
	ClassID *int
	// ClassIDs, when non-nil, restricts class events to these classes; institution-wide
	// events are always included.
	ClassIDs []int
}

// EventRequest is the payload for creating or updating an event.
type EventRequest struct {
	ClassID     *int      `json:"class_id" binding:"omitempty,min=1"`
	Title       string    `json:"title" binding:"required,min=2,max=150"`
	Description string    `json:"description" binding:"omitempty,max=4000"`
	Kind        string    `json:"kind" binding:"omitempty,oneof=GERAL FERIADO REUNIAO PASSEIO FESTA OUTRO"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required,gtefield=StartsAt"`
	AllDay      bool      `json:"all_day"`
}
