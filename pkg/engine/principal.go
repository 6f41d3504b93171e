package engine

import "context"

// Principal identifies the caller of a visibility or permission check.
type Principal struct {
	UserID uint
	Groups []uint
	Admin  bool
}

// InGroup reports whether the principal belongs to group id.
func (p Principal) InGroup(id uint) bool {
	for _, g := range p.Groups {
		if g == id {
			return true
		}
	}
	return false
}

// Directory resolves internal user ids to principals. Backed by the
// user/group directory, which this engine treats as read-only.
type Directory interface {
	PrincipalFor(ctx context.Context, userID uint) (Principal, error)
}
