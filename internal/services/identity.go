package services

import "github.com/AnshRaj112/sentimentpulse-backend/internal/models"

// Identity is the authenticated caller, resolved once at the edge and passed
// explicitly into every operation that needs it.
type Identity struct {
	UserID int64
	Role   models.Role
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// CanAccess reports whether the caller may act on something owned by ownerID.
func (i Identity) CanAccess(ownerID int64) bool {
	return i.IsAdmin() || (i.UserID != 0 && i.UserID == ownerID)
}
