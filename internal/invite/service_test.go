package invite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/database"
	"github.com/calloway/hearthside/internal/model"
	"github.com/calloway/hearthside/internal/store"
)

type fakeSender struct {
	configured bool
	sendErr    error
	toEmail    string
	code       string
	familyName string
	role       string
}

func (f *fakeSender) SendInvite(toEmail, code, familyName, role string) error {
	f.toEmail = toEmail
	f.code = code
	f.familyName = familyName
	f.role = role
	return f.sendErr
}

func (f *fakeSender) Configured() bool { return f.configured }

type serviceFixture struct {
	db       *sql.DB
	svc      *Service
	families *store.FamilyStore
	users    *store.UserStore
	sender   *fakeSender
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	sender := &fakeSender{configured: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &serviceFixture{
		db:       db,
		svc:      NewService(store.NewInviteStore(db), families, sender, logger),
		families: families,
		users:    store.NewUserStore(db),
		sender:   sender,
	}
}

func (fx *serviceFixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := fx.users.Create(email, "Test User")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside alphabet", code, c)
			}
		}
	}
}

func TestIssue(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)

	ic, err := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleCaregiver, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if ic.Role != model.RoleCaregiver {
		t.Errorf("role = %q, want caregiver", ic.Role)
	}
	if len(ic.Code) != codeLength {
		t.Errorf("code length = %d, want %d", len(ic.Code), codeLength)
	}
	if ic.FamilyID != f.ID {
		t.Errorf("family_id = %d, want %d", ic.FamilyID, f.ID)
	}
}

func TestIssueRequiresInvitingRole(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	caregiver := fx.user(t, "cg@example.com")
	outsider := fx.user(t, "out@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)
	fx.families.AddMember(f.ID, caregiver.ID, model.RoleCaregiver)

	if _, err := fx.svc.Issue(context.Background(), caregiver.ID, f.ID, model.RoleMember, nil); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("caregiver issue: err = %v, want ErrForbidden", err)
	}
	if _, err := fx.svc.Issue(context.Background(), outsider.ID, f.ID, model.RoleMember, nil); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("non-member issue: err = %v, want ErrForbidden", err)
	}
}

func TestIssueRejectsOwnerRole(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)

	if _, err := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleOwner, nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if _, err := fx.svc.Issue(context.Background(), owner.ID, f.ID, "admin", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown role: err = %v, want ErrValidation", err)
	}
}

func TestIssueRejectsPastExpiry(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)

	past := time.Now().Add(-time.Hour)
	if _, err := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleMember, &past); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRedeem(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	joiner := fx.user(t, "joiner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)
	ic, _ := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleCaregiver, nil)

	m, err := fx.svc.Redeem(joiner.ID, strings.ToLower(ic.Code))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if m.Role != model.RoleCaregiver {
		t.Errorf("role = %q, want caregiver", m.Role)
	}
	if m.FamilyID != f.ID {
		t.Errorf("family_id = %d, want %d", m.FamilyID, f.ID)
	}

	got, _ := store.NewInviteStore(fx.db).GetByCode(ic.Code)
	if got.RedeemCount != 1 {
		t.Errorf("redeem_count = %d, want 1", got.RedeemCount)
	}
}

func TestRedeemIdempotentForExistingMember(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	joiner := fx.user(t, "joiner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)
	fx.families.AddMember(f.ID, joiner.ID, model.RoleMember)

	// The code grants caregiver, but the existing member role stands.
	ic, _ := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleCaregiver, nil)
	m, err := fx.svc.Redeem(joiner.ID, ic.Code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if m.Role != model.RoleMember {
		t.Errorf("role = %q, want member (unchanged)", m.Role)
	}

	got, _ := store.NewInviteStore(fx.db).GetByCode(ic.Code)
	if got.RedeemCount != 0 {
		t.Errorf("redeem_count = %d, want 0 for a no-op redemption", got.RedeemCount)
	}
}

func TestRedeemMultiUse(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	first := fx.user(t, "first@example.com")
	second := fx.user(t, "second@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)
	ic, _ := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleMember, nil)

	if _, err := fx.svc.Redeem(first.ID, ic.Code); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := fx.svc.Redeem(second.ID, ic.Code); err != nil {
		t.Fatalf("second redeem: %v", err)
	}
}

func TestRedeemErrors(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	joiner := fx.user(t, "joiner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)

	if _, err := fx.svc.Redeem(joiner.ID, "  "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty code: err = %v, want ErrValidation", err)
	}
	if _, err := fx.svc.Redeem(joiner.ID, "NOSUCH99"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown code: err = %v, want ErrNotFound", err)
	}

	expired, _ := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleMember, nil)
	if _, err := fx.db.Exec(`UPDATE invite_codes SET expires_at = datetime('now', '-1 hour') WHERE id = ?`, expired.ID); err != nil {
		t.Fatalf("backdate invite: %v", err)
	}
	if _, err := fx.svc.Redeem(joiner.ID, expired.Code); !errors.Is(err, apperr.ErrExpired) {
		t.Errorf("expired code: err = %v, want ErrExpired", err)
	}

	revoked, _ := fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleMember, nil)
	if err := fx.svc.Revoke(owner.ID, f.ID, revoked.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	// A revoked code answers exactly like an unknown one.
	if _, err := fx.svc.Redeem(joiner.ID, revoked.Code); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("revoked code: err = %v, want ErrNotFound", err)
	}
}

func TestForward(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	f, _ := fx.families.CreateWithOwner("The Walkers", owner.ID)

	ic, err := fx.svc.Forward(context.Background(), owner.ID, f.ID, "aunt@example.com", model.RoleMember, nil)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if fx.sender.toEmail != "aunt@example.com" {
		t.Errorf("sent to %q", fx.sender.toEmail)
	}
	if fx.sender.code != ic.Code {
		t.Errorf("sent code %q, want %q", fx.sender.code, ic.Code)
	}
	if fx.sender.familyName != "The Walkers" {
		t.Errorf("family name = %q", fx.sender.familyName)
	}
}

func TestForwardRejectsBadEmail(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)

	for _, addr := range []string{"", "not-an-email", "a@b", "two words@example.com"} {
		if _, err := fx.svc.Forward(context.Background(), owner.ID, f.ID, addr, model.RoleMember, nil); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("email %q: err = %v, want ErrValidation", addr, err)
		}
	}
}

func TestForwardRequiresConfiguredSender(t *testing.T) {
	fx := setupService(t)
	fx.sender.configured = false
	owner := fx.user(t, "owner@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)

	if _, err := fx.svc.Forward(context.Background(), owner.ID, f.ID, "aunt@example.com", model.RoleMember, nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRevokeScopedToFamily(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	f1, _ := fx.families.CreateWithOwner("One", owner.ID)
	f2, _ := fx.families.CreateWithOwner("Two", owner.ID)
	ic, _ := fx.svc.Issue(context.Background(), owner.ID, f1.ID, model.RoleMember, nil)

	// The code belongs to f1, so a revoke through f2 cannot find it.
	if err := fx.svc.Revoke(owner.ID, f2.ID, ic.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-family revoke: err = %v, want ErrNotFound", err)
	}
	if err := fx.svc.Revoke(owner.ID, f1.ID, ic.ID); err != nil {
		t.Errorf("revoke: %v", err)
	}
}

func TestListRequiresInvitingRole(t *testing.T) {
	fx := setupService(t)
	owner := fx.user(t, "owner@example.com")
	caregiver := fx.user(t, "cg@example.com")
	f, _ := fx.families.CreateWithOwner("Family", owner.ID)
	fx.families.AddMember(f.ID, caregiver.ID, model.RoleCaregiver)
	fx.svc.Issue(context.Background(), owner.ID, f.ID, model.RoleMember, nil)

	codes, err := fx.svc.List(owner.ID, f.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 1 {
		t.Errorf("len = %d, want 1", len(codes))
	}

	if _, err := fx.svc.List(caregiver.ID, f.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("caregiver list: err = %v, want ErrForbidden", err)
	}
}
