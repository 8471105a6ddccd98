package database

import (
	"testing"

	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConnect(t *testing.T) {
	db, err := Connect(":memory:")
	require.NoError(t, err)

	owner := models.User{DiscordID: "1", Email: "a@example.com"}
	require.NoError(t, db.Create(&owner).Error)

	first := models.Achievement{Title: "Read a book", Privacy: models.PrivacyPublic, OwnerID: owner.ID}
	require.NoError(t, db.Create(&first).Error)

	t.Run("owner and title are unique together", func(t *testing.T) {
		dup := models.Achievement{Title: "Read a book", Privacy: models.PrivacyPrivate, OwnerID: owner.ID}
		err := db.Create(&dup).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("same title for another owner", func(t *testing.T) {
		other := models.User{DiscordID: "2"}
		require.NoError(t, db.Create(&other).Error)
		a := models.Achievement{Title: "Read a book", Privacy: models.PrivacyPublic, OwnerID: other.ID}
		assert.NoError(t, db.Create(&a).Error)
	})

	t.Run("delete is permanent", func(t *testing.T) {
		require.NoError(t, db.Delete(&first).Error)
		var count int64
		db.Unscoped().Model(&models.Achievement{}).Where("id = ?", first.ID).Count(&count)
		assert.Zero(t, count)
	})
}
