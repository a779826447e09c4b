package model

import (
	"strings"
	"time"
)

// Gender represents the student's gender.
type Gender string

const (
	GenderMale   Gender = "MASCULINO"
	GenderFemale Gender = "FEMININO"
)

// Guardian is one entry of a student's embedded guardian list.
type Guardian struct {
	ProfileID            int    `json:"profile_id"`
	Name                 string `json:"name"`
	Relationship         string `json:"relationship"`
	Phone                string `json:"phone,omitempty"`
	Email                string `json:"email,omitempty"`
	FinancialResponsible bool   `json:"financial_responsible"`
}

// AuthorizedPickup is a person allowed to collect the student.
type AuthorizedPickup struct {
	Name         string `json:"name" binding:"required,min=2,max=120"`
	Document     string `json:"document" binding:"omitempty,max=32"`
	Relationship string `json:"relationship" binding:"omitempty,max=40"`
	Phone        string `json:"phone" binding:"omitempty,max=32"`
}

// Student (aluno) is a child enrolled at the institution.
type Student struct {
	ID                int                `json:"id"`
	InstitutionID     int                `json:"institution_id"`
	ClassID           *int               `json:"class_id"`
	ClassName         string             `json:"class_name,omitempty"`
	Name              string             `json:"name"`
	BirthDate         Date               `json:"birth_date"`
	Gender            Gender             `json:"gender"`
	Allergies         string             `json:"allergies"`
	Notes             string             `json:"notes"`
	PhotoURL          string             `json:"photo_url"`
	Active            bool               `json:"active"`
	Guardians         []Guardian         `json:"guardians"`
	AuthorizedPickups []AuthorizedPickup `json:"authorized_pickups"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// HasFinancialGuardian reports whether any guardian is financially responsible.
func (s *Student) HasFinancialGuardian() bool {
	for _, g := range s.Guardians {
		if g.FinancialResponsible {
			return true
		}
	}
	return false
}

// GuardianIndex returns the position of a profile in the guardian list, or -1.
func (s *Student) GuardianIndex(profileID int) int {
	for i, g := range s.Guardians {
		if g.ProfileID == profileID {
			return i
		}
	}
	return -1
}

// HasGuardianEmail reports whether a guardian with this email is already linked.
func (s *Student) HasGuardianEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, g := range s.Guardians {
		if strings.EqualFold(g.Email, email) {
			return true
		}
	}
	return false
}

// GuardianIDs returns the profile IDs of all linked guardians.
func (s *Student) GuardianIDs() []int {
	ids := make([]int, 0, len(s.Guardians))
	for _, g := range s.Guardians {
		ids = append(ids, g.ProfileID)
	}
	return ids
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	ClassID    *int
	Search     string
	ActiveOnly bool
	// GuardianID restricts results to students linked to this guardian profile.
	GuardianID *int
}

// StudentRequest is the payload for creating or updating a student.
type StudentRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=120"`
	BirthDate string `json:"birth_date" binding:"required,datetime=2006-01-02"`
	Gender    Gender `json:"gender" binding:"omitempty,oneof=MASCULINO FEMININO"`
	ClassID   *int   `json:"class_id" binding:"omitempty,min=1"`
	Allergies string `json:"allergies" binding:"omitempty,max=2000"`
	Notes     string `json:"notes" binding:"omitempty,max=2000"`
	PhotoURL  string `json:"photo_url" binding:"omitempty,max=255"`
	Active    *bool  `json:"active"`
}

// LinkGuardianRequest links an existing guardian profile (ProfileID) or provisions a new one
// from Name/Email/Phone/Password.
type LinkGuardianRequest struct {
	ProfileID            int    `json:"profile_id" binding:"omitempty,min=1"`
	Name                 string `json:"name" binding:"required_without=ProfileID,omitempty,min=2,max=120"`
	Email                string `json:"email" binding:"required_without=ProfileID,omitempty,email,max=255"`
	Phone                string `json:"phone" binding:"omitempty,max=32"`
	Password             string `json:"password" binding:"omitempty,min=6,max=128"`
	Relationship         string `json:"relationship" binding:"required,min=2,max=40"`
	FinancialResponsible bool   `json:"financial_responsible"`
}

// LinkGuardianResult is returned after linking. TemporaryPassword is only set when a
// profile was provisioned without an explicit password.
type LinkGuardianResult struct {
	Student           *Student `json:"student"`
	Guardian          Guardian `json:"guardian"`
	ProfileCreated    bool     `json:"profile_created"`
	TemporaryPassword string   `json:"temporary_password,omitempty"`
}

// UpdateGuardianRequest edits the link attributes of an already linked guardian.
type UpdateGuardianRequest struct {
	Relationship         string `json:"relationship" binding:"required,min=2,max=40"`
	FinancialResponsible bool   `json:"financial_responsible"`
}

// UpdatePickupsRequest replaces the authorized pickup list.
type UpdatePickupsRequest struct {
	Pickups []AuthorizedPickup `json:"pickups" binding:"omitempty,max=20,dive"`
}
