package services

import "github.com/tasktrack/tasktracker/internal/models"

// Viewer is the authenticated caller of a request together with the user ids
// whose tasks they may see. It is built once per request and passed down
// explicitly.
type Viewer struct {
	User              models.User
	AccessibleUserIDs []string
}

// NewViewer resolves the accessible ids for user.
func NewViewer(user models.User, resolver *AccessResolver) Viewer {
	return Viewer{
		User:              user,
		AccessibleUserIDs: resolver.Resolve(user.ID, user.Role),
	}
}

// ID returns the viewer's user id.
func (v Viewer) ID() string {
	return v.User.ID
}

// IsManager reports whether the viewer has the manager role.
func (v Viewer) IsManager() bool {
	return v.User.Role.IsManager()
}

// CanSee reports whether tasks owned by ownerID are visible to the viewer.
func (v Viewer) CanSee(ownerID string) bool {
	for _, id := range v.AccessibleUserIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}
