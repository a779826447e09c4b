package config

import (
	"fmt"
	"time"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the key holding one issued token of a profile.
func (r *CacheKeyStruct) SessionKey(profileID int, jti string) string {
	return fmt.Sprintf("session:%d:%s", profileID, jti)
}

// SessionPattern matches every session key of a profile.
func (r *CacheKeyStruct) SessionPattern(profileID int) string {
	return fmt.Sprintf("session:%d:*", profileID)
}

// LoginAttemptsKey returns the per-IP login counter for the current minute window.
func (r *CacheKeyStruct) LoginAttemptsKey(ip string, now time.Time) string {
	return fmt.Sprintf("login_attempts:%s:%d", ip, now.Unix()/60)
}

// NotificationChannel returns the Redis PubSub channel of a profile's live notifications.
func (r *CacheKeyStruct) NotificationChannel(profileID int) string {
	return fmt.Sprintf("notifications:%d", profileID)
}

// ReminderRunKey marks that the daily reminders already ran for an institution-wide date.
func (r *CacheKeyStruct) ReminderRunKey(date string) string {
	return fmt.Sprintf("reminders:%s", date)
}

var CacheKey = NewCacheKeyStruct()
