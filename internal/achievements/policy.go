package achievements

import "github.com/gdg-garage/achievement-board/internal/models"

// CanView reports whether actor may see a in listings. A nil actor is anonymous.
// Friends-only achievements are treated as private until there is a friend graph.
func CanView(actor *models.User, a *models.Achievement) bool {
	if a.Privacy == models.PrivacyPublic {
		return true
	}
	return isOwner(actor, a)
}

// CanModify reports whether actor may edit or delete a.
func CanModify(actor *models.User, a *models.Achievement) bool {
	return isOwner(actor, a)
}

func isOwner(actor *models.User, a *models.Achievement) bool {
	return actor != nil && actor.ID != 0 && actor.ID == a.OwnerID
}
