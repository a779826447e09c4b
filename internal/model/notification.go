package model

import "time"

// Notification kinds.
const (
	NotificationGeneral  = "GERAL"
	NotificationDailyLog = "REGISTRO_DIARIO"
	NotificationIncident = "OCORRENCIA"
	NotificationVaccine  = "VACINA"
	NotificationEvent    = "EVENTO"
)

// Notification (notificação) is a message addressed to one profile.
type Notification struct {
	ID            int        `json:"id"`
	InstitutionID int        `json:"institution_id"`
	RecipientID   int        `json:"recipient_id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Kind          string     `json:"kind"`
	ReadAt        *time.Time `json:"read_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NotificationJob is the queued unit the notification worker fans out into rows.
type NotificationJob struct {
	InstitutionID int    `json:"institution_id"`
	RecipientIDs  []int  `json:"recipient_ids"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	Kind          string `json:"kind"`
}

// NotificationAudience selects who receives a broadcast.
type NotificationAudience string

const (
	AudienceProfile      NotificationAudience = "PROFILE"
	AudienceClass        NotificationAudience = "CLASS"
	AudienceAllGuardians NotificationAudience = "ALL_GUARDIANS"
	AudienceAllStaff     NotificationAudience = "ALL_STAFF"
)

// SendNotificationRequest is the payload for broadcasting a notification.
type SendNotificationRequest struct {
	Audience  NotificationAudience `json:"audience" binding:"required,oneof=PROFILE CLASS ALL_GUARDIANS ALL_STAFF"`
	ProfileID int                  `json:"profile_id" binding:"required_if=Audience PROFILE"`
	ClassID   int                  `json:"class_id" binding:"required_if=Audience CLASS"`
	Title     string               `json:"title" binding:"required,min=2,max=150"`
	Message   string               `json:"message" binding:"required,min=1,max=4000"`
}
