package family

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/invite"
	"github.com/calloway/hearthside/internal/model"
	"github.com/calloway/hearthside/internal/store"
)

const maxNameLength = 100

// BlobDeleter removes stored document objects. Satisfied by blob.Store.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
	Configured() bool
}

// Manager owns family creation, deletion and departure. Handlers never
// touch membership rows directly; they go through here or the invite
// service.
type Manager struct {
	families  *store.FamilyStore
	documents *store.DocumentStore
	invites   *invite.Service
	blobs     BlobDeleter
	logger    *slog.Logger
}

func NewManager(families *store.FamilyStore, documents *store.DocumentStore, invites *invite.Service, blobs BlobDeleter, logger *slog.Logger) *Manager {
	return &Manager{
		families:  families,
		documents: documents,
		invites:   invites,
		blobs:     blobs,
		logger:    logger.With("component", "family"),
	}
}

// CreateFamily creates the family with the caller as owner, then issues a
// non-expiring member invite so the owner has something to share right away.
// A failure to issue the invite does not undo the family.
func (m *Manager) CreateFamily(ctx context.Context, userID int64, name string) (*model.Family, *model.InviteCode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("family name is required: %w", apperr.ErrValidation)
	}
	if len(name) > maxNameLength {
		return nil, nil, fmt.Errorf("family name exceeds %d characters: %w", maxNameLength, apperr.ErrValidation)
	}

	f, err := m.families.CreateWithOwner(name, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("create family: %w", err)
	}

	ic, err := m.invites.Issue(ctx, userID, f.ID, model.RoleMember, nil)
	if err != nil {
		m.logger.Error("failed to issue default invite", "family_id", f.ID, "error", err)
		ic = nil
	}

	m.logger.Info("family created", "family_id", f.ID, "owner_id", userID)
	return f, ic, nil
}

// DeleteFamily removes the family and everything in it. Owner only. Stored
// document objects are deleted best-effort after the transaction commits;
// an orphaned object is recoverable, a half-deleted family is not.
func (m *Manager) DeleteFamily(ctx context.Context, userID, familyID int64) error {
	member, err := m.families.GetMember(familyID, userID)
	if err != nil {
		return err
	}
	if member == nil || member.Role != model.RoleOwner {
		return fmt.Errorf("delete family %d: %w", familyID, apperr.ErrForbidden)
	}

	blobKeys, err := m.documents.ListBlobKeys(familyID)
	if err != nil {
		return err
	}

	if err := m.families.DeleteCascade(familyID); err != nil {
		return fmt.Errorf("delete family %d: %w", familyID, err)
	}

	if m.blobs != nil && m.blobs.Configured() {
		for _, key := range blobKeys {
			if err := m.blobs.Delete(ctx, key); err != nil {
				m.logger.Error("failed to delete document object", "key", key, "error", err)
			}
		}
	}

	m.logger.Info("family deleted", "family_id", familyID, "deleted_by", userID)
	return nil
}

// LeaveFamily removes the caller's own membership. Owners cannot leave;
// they delete the family instead. Non-members get the same answer as a
// nonexistent family.
func (m *Manager) LeaveFamily(userID, familyID int64) error {
	member, err := m.families.GetMember(familyID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("leave family %d: %w", familyID, apperr.ErrForbidden)
	}
	if member.Role == model.RoleOwner {
		return fmt.Errorf("owner cannot leave family %d: %w", familyID, apperr.ErrForbidden)
	}

	if err := m.families.RemoveMember(familyID, userID); err != nil {
		return err
	}

	m.logger.Info("member left family", "family_id", familyID, "user_id", userID)
	return nil
}

// RemoveMember ejects another user from the family. Owner only, and the
// owner cannot remove themselves this way.
func (m *Manager) RemoveMember(callerID, familyID, targetUserID int64) error {
	caller, err := m.families.GetMember(familyID, callerID)
	if err != nil {
		return err
	}
	if caller == nil || caller.Role != model.RoleOwner {
		return fmt.Errorf("remove member from family %d: %w", familyID, apperr.ErrForbidden)
	}
	if callerID == targetUserID {
		return fmt.Errorf("owner cannot remove self: %w", apperr.ErrValidation)
	}

	target, err := m.families.GetMember(familyID, targetUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("member %d: %w", targetUserID, apperr.ErrNotFound)
	}

	if err := m.families.RemoveMember(familyID, targetUserID); err != nil {
		return err
	}

	m.logger.Info("member removed", "family_id", familyID, "user_id", targetUserID, "removed_by", callerID)
	return nil
}
