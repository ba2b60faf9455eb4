// Package selector resolves which family a signed-in user is acting in.
//
// The active family is a client-held preference mirrored into the session
// row. It starts out unresolved; resolution checks the preference against
// the user's current memberships and falls back to the oldest family when
// the preference is missing or stale.
package selector

import (
	"fmt"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/model"
)

// Unresolved is the zero preference. A session created before the user
// picks a family carries it until the first resolution.
const Unresolved int64 = 0

// Resolve maps a persisted preference onto the user's memberships.
// It returns the family ID to act in, or 0 with apperr.ErrNotFound when the
// user belongs to no family at all. A stale or unresolved preference
// silently falls back to the oldest family; families must be ordered oldest
// first, which is what FamilyStore.ListForUser returns.
func Resolve(preference int64, families []model.Family) (int64, error) {
	if len(families) == 0 {
		return Unresolved, fmt.Errorf("no family memberships: %w", apperr.ErrNotFound)
	}
	if preference != Unresolved {
		for _, f := range families {
			if f.ID == preference {
				return preference, nil
			}
		}
	}
	return families[0].ID, nil
}

// Switch validates an explicit preference change. Unlike Resolve it never
// falls back: switching to a family the user does not belong to is refused
// the same way a nonexistent family would be.
func Switch(target int64, families []model.Family) (int64, error) {
	for _, f := range families {
		if f.ID == target {
			return target, nil
		}
	}
	return Unresolved, fmt.Errorf("switch to family %d: %w", target, apperr.ErrForbidden)
}
