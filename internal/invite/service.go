package invite

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/authz"
	"github.com/calloway/hearthside/internal/model"
	"github.com/calloway/hearthside/internal/store"
)

// codeAlphabet drops 0, O, 1 and I so codes survive being read aloud or
// scribbled on a fridge note.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// maxIssueAttempts bounds retries on code collision. With a 32-char
// alphabet and 8 positions a collision is already vanishingly rare.
const maxIssueAttempts = 5

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Sender delivers an invite to an email address. Satisfied by email.Client.
type Sender interface {
	SendInvite(toEmail, code, familyName, role string) error
	Configured() bool
}

type Service struct {
	invites  *store.InviteStore
	families *store.FamilyStore
	sender   Sender
	logger   *slog.Logger
}

func NewService(invites *store.InviteStore, families *store.FamilyStore, sender Sender, logger *slog.Logger) *Service {
	return &Service{
		invites:  invites,
		families: families,
		sender:   sender,
		logger:   logger.With("component", "invite"),
	}
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Issue creates a new invite code for the family. The issuer must hold a
// membership whose role may invite; the granted role cannot be owner.
// Collisions with existing codes are retried with a fresh code each time.
func (s *Service) Issue(ctx context.Context, issuerID, familyID int64, role string, expiresAt *time.Time) (*model.InviteCode, error) {
	issuer, err := s.families.GetMember(familyID, issuerID)
	if err != nil {
		return nil, err
	}
	if issuer == nil || !authz.CanInvite(issuer.Role) {
		return nil, fmt.Errorf("issue invite for family %d: %w", familyID, apperr.ErrForbidden)
	}

	if role != model.RoleMember && role != model.RoleCaregiver {
		return nil, fmt.Errorf("invite role %q: %w", role, apperr.ErrValidation)
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("invite expiry in the past: %w", apperr.ErrValidation)
	}

	var created *model.InviteCode
	backoff := retry.WithMaxRetries(maxIssueAttempts-1, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := generateCode()
		if err != nil {
			return err
		}
		ic, err := s.invites.Create(code, familyID, role, issuerID, expiresAt)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				s.logger.Warn("invite code collision, retrying", "family_id", familyID)
				return retry.RetryableError(err)
			}
			return err
		}
		created = ic
		return nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("exhausted invite code attempts: %w", apperr.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("invite issued", "family_id", familyID, "role", role, "issued_by", issuerID)
	return created, nil
}

// Redeem joins the user to the code's family. Redeeming a code for a family
// the user already belongs to is a no-op returning the existing membership;
// the held role is never changed by a second redemption.
func (s *Service) Redeem(userID int64, code string) (*model.Membership, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("empty invite code: %w", apperr.ErrValidation)
	}

	ic, err := s.invites.GetByCode(code)
	if err != nil {
		return nil, err
	}
	// Revoked codes are indistinguishable from unknown ones.
	if ic == nil || ic.RevokedAt != nil {
		return nil, fmt.Errorf("invite code: %w", apperr.ErrNotFound)
	}
	if ic.ExpiresAt != nil && ic.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("invite code: %w", apperr.ErrExpired)
	}

	existing, err := s.families.GetMember(ic.FamilyID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m, err := s.families.AddMember(ic.FamilyID, userID, ic.Role)
	if err != nil {
		return nil, fmt.Errorf("redeem invite: %w", err)
	}
	if err := s.invites.MarkRedeemed(ic.ID); err != nil {
		s.logger.Error("failed to mark invite redeemed", "invite_id", ic.ID, "error", err)
	}

	s.logger.Info("invite redeemed", "family_id", ic.FamilyID, "user_id", userID, "role", ic.Role)
	return m, nil
}

// Forward issues a fresh code and emails it to the recipient.
func (s *Service) Forward(ctx context.Context, issuerID, familyID int64, toEmail, role string, expiresAt *time.Time) (*model.InviteCode, error) {
	toEmail = strings.TrimSpace(toEmail)
	if !emailPattern.MatchString(toEmail) {
		return nil, fmt.Errorf("invalid email %q: %w", toEmail, apperr.ErrValidation)
	}
	if !s.sender.Configured() {
		return nil, fmt.Errorf("email delivery not configured: %w", apperr.ErrValidation)
	}

	ic, err := s.Issue(ctx, issuerID, familyID, role, expiresAt)
	if err != nil {
		return nil, err
	}

	family, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, err
	}
	familyName := ""
	if family != nil {
		familyName = family.Name
	}

	if err := s.sender.SendInvite(toEmail, ic.Code, familyName, ic.Role); err != nil {
		return nil, fmt.Errorf("send invite email: %w", err)
	}

	s.logger.Info("invite forwarded", "family_id", familyID, "role", role)
	return ic, nil
}

// Revoke marks a code unusable. Only roles that can issue may revoke, and
// only for codes belonging to their own family.
func (s *Service) Revoke(issuerID, familyID, inviteID int64) error {
	issuer, err := s.families.GetMember(familyID, issuerID)
	if err != nil {
		return err
	}
	if issuer == nil || !authz.CanInvite(issuer.Role) {
		return fmt.Errorf("revoke invite for family %d: %w", familyID, apperr.ErrForbidden)
	}

	codes, err := s.invites.ListByFamily(familyID)
	if err != nil {
		return err
	}
	for _, ic := range codes {
		if ic.ID == inviteID {
			return s.invites.Revoke(inviteID)
		}
	}
	return fmt.Errorf("invite %d: %w", inviteID, apperr.ErrNotFound)
}

// List returns the family's codes for members who can manage invites.
func (s *Service) List(requesterID, familyID int64) ([]model.InviteCode, error) {
	requester, err := s.families.GetMember(familyID, requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil || !authz.CanInvite(requester.Role) {
		return nil, fmt.Errorf("list invites for family %d: %w", familyID, apperr.ErrForbidden)
	}
	return s.invites.ListByFamily(familyID)
}
