package model

import "time"

// Institution is the tenant every record belongs to.
type Institution struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateInstitutionRequest is the payload for editing the caller's institution.
type UpdateInstitutionRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=150"`
	Document string `json:"document" binding:"omitempty,max=32"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Address  string `json:"address" binding:"omitempty,max=255"`
}
