package model

import "time"

// Photo is an album picture, optionally tied to a class and/or an event.
type Photo struct {
	ID            int       `json:"id"`
	InstitutionID int       `json:"institution_id"`
	ClassID       *int      `json:"class_id"`
	EventID       *int      `json:"event_id"`
	UploadedBy    *int      `json:"uploaded_by"`
	URL           string    `json:"url"`
	Caption       string    `json:"caption"`
	CreatedAt     time.Time `json:"created_at"`
}

// PhotoFilter narrows album listings.
type PhotoFilter struct {
	ClassID *int
	EventID *int
	// ClassIDs, when non-nil, restricts class photos to these classes; photos without a
	// class are always included.
	ClassIDs []int
}
