package push

import (
	"errors"
	"log/slog"

	"github.com/calloway/hearthside/internal/store"
)

// Notifier fans a notification out to every member of a family except the
// user who triggered it. Expired subscriptions are pruned as they surface.
type Notifier struct {
	svc      *Service
	families *store.FamilyStore
	subs     *store.PushStore
	logger   *slog.Logger
}

func NewNotifier(svc *Service, families *store.FamilyStore, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{
		svc:      svc,
		families: families,
		subs:     subs,
		logger:   logger.With("component", "push"),
	}
}

// NotifyFamily sends payload to all members of the family except actorID.
// Delivery is best-effort; failures are logged, never returned. Intended to
// run in a goroutine off the request path.
func (n *Notifier) NotifyFamily(familyID, actorID int64, payload Payload) {
	if !n.svc.Configured() {
		return
	}

	members, err := n.families.ListMembers(familyID)
	if err != nil {
		n.logger.Error("list members for notify", "family_id", familyID, "error", err)
		return
	}

	for _, m := range members {
		if m.UserID == actorID {
			continue
		}
		subs, err := n.subs.ListByUser(m.UserID)
		if err != nil {
			n.logger.Error("list subscriptions", "user_id", m.UserID, "error", err)
			continue
		}
		for _, sub := range subs {
			if err := n.svc.Send(&sub, payload); err != nil {
				if errors.Is(err, ErrExpired) {
					if delErr := n.subs.DeleteByEndpoint(sub.Endpoint); delErr != nil {
						n.logger.Error("prune expired subscription", "error", delErr)
					}
					continue
				}
				n.logger.Error("send push", "user_id", m.UserID, "error", err)
			}
		}
	}
}
