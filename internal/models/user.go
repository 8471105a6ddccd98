package models

import (
	"gorm.io/gorm"
)

// User is a member signed in through Discord. Email is the address owner
// notifications are sent to.
type User struct {
	gorm.Model
	DiscordID string `gorm:"uniqueIndex;not null"`
	Username  string
	Email     string
	Avatar    string
}

// DisplayName prefers the Discord username and falls back to the email.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// CanReceiveMail reports whether owner notifications can reach u.
func (u User) CanReceiveMail() bool {
	return u.Email != ""
}
