package authz

import (
	"fmt"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/model"
)

// MembershipSource is the read side of the membership store the guard needs.
type MembershipSource interface {
	GetMember(familyID, userID int64) (*model.Membership, error)
}

// Guard is the single enforcement point for family-scoped requests: resolve
// the caller's membership, then consult the capability matrix. A missing
// membership and a nonexistent family produce the same Forbidden answer so
// callers cannot probe for other tenants' family ids.
type Guard struct {
	members MembershipSource
}

func NewGuard(members MembershipSource) *Guard {
	return &Guard{members: members}
}

// Authorize returns nil if userID may perform action on resource within
// familyID, apperr.ErrForbidden otherwise.
func (g *Guard) Authorize(userID, familyID int64, resource Resource, action Action) error {
	m, err := g.members.GetMember(familyID, userID)
	if err != nil {
		return fmt.Errorf("lookup membership: %w", err)
	}
	if m == nil {
		return fmt.Errorf("no membership in family %d: %w", familyID, apperr.ErrForbidden)
	}
	if !Decide(m.Role, resource, action) {
		return fmt.Errorf("role %s may not %s %s: %w", m.Role, action, resource, apperr.ErrForbidden)
	}
	return nil
}
