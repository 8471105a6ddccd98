package models

import (
	"fmt"
	"time"
)

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
	PrivacyFriends Privacy = "friends"
)

// Privacies lists every privacy level in display order.
var Privacies = []Privacy{PrivacyPublic, PrivacyPrivate, PrivacyFriends}

func ParsePrivacy(s string) (Privacy, error) {
	p := Privacy(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown privacy %q", s)
	}
	return p, nil
}

func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyFriends:
		return true
	}
	return false
}

func (p Privacy) Label() string {
	switch p {
	case PrivacyPublic:
		return "Public"
	case PrivacyPrivate:
		return "Private"
	case PrivacyFriends:
		return "Friends"
	}
	return string(p)
}

// Achievement has no DeletedAt column on purpose: deletes are permanent.
type Achievement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null;uniqueIndex:idx_owner_title" json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Privacy     Privacy   `gorm:"type:varchar(16);not null" json:"privacy" validate:"required,oneof=public private friends"`
	Featured    bool      `gorm:"not null;default:false" json:"featured"`
	CoverImage  string    `json:"cover_image"`
	OwnerID     uint      `gorm:"not null;uniqueIndex:idx_owner_title" json:"owner_id" validate:"required"`
	Owner       User      `gorm:"foreignKey:OwnerID" json:"-" validate:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Author identifies the achievement together with its owner's e-mail.
// Owner must be loaded.
func (a Achievement) Author() string {
	return fmt.Sprintf("%s %s", a.Title, a.Owner.Email)
}
