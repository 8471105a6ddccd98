package achievements

import (
	"testing"

	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestPolicy(t *testing.T) {
	owner := &models.User{Model: gorm.Model{ID: 1}}
	stranger := &models.User{Model: gorm.Model{ID: 2}}

	tests := []struct {
		name       string
		actor      *models.User
		privacy    models.Privacy
		wantView   bool
		wantModify bool
	}{
		{name: "anonymous sees public", actor: nil, privacy: models.PrivacyPublic, wantView: true},
		{name: "anonymous does not see private", actor: nil, privacy: models.PrivacyPrivate},
		{name: "anonymous does not see friends", actor: nil, privacy: models.PrivacyFriends},
		{name: "stranger sees public", actor: stranger, privacy: models.PrivacyPublic, wantView: true},
		{name: "stranger does not see friends", actor: stranger, privacy: models.PrivacyFriends},
		{name: "owner sees private", actor: owner, privacy: models.PrivacyPrivate, wantView: true, wantModify: true},
		{name: "owner modifies public", actor: owner, privacy: models.PrivacyPublic, wantView: true, wantModify: true},
		{name: "unsaved user is nobody", actor: &models.User{}, privacy: models.PrivacyPrivate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.Achievement{OwnerID: owner.ID, Privacy: tt.privacy}
			assert.Equal(t, tt.wantView, CanView(tt.actor, a))
			assert.Equal(t, tt.wantModify, CanModify(tt.actor, a))
		})
	}
}
