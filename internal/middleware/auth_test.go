package middleware

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/database"
	"github.com/calloway/hearthside/internal/model"
	"github.com/calloway/hearthside/internal/store"
)

type authFixture struct {
	db       *sql.DB
	sessions *store.SessionStore
	families *store.FamilyStore
	users    *store.UserStore
	handler  func(http.Handler) http.Handler
}

func setupAuth(t *testing.T) *authFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions := store.NewSessionStore(db)
	families := store.NewFamilyStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &authFixture{
		db:       db,
		sessions: sessions,
		families: families,
		users:    store.NewUserStore(db),
		handler:  RequireAuth(sessions, families, logger),
	}
}

// capture runs a request through RequireAuth and records the AuthContext the
// inner handler saw.
func (fx *authFixture) capture(t *testing.T, cookie string) (*httptest.ResponseRecorder, *auth.AuthContext) {
	t.Helper()
	var got *auth.AuthContext
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ac, ok := auth.FromContext(r.Context()); ok {
			got = &ac
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/families", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	fx.handler(inner).ServeHTTP(rec, req)
	return rec, got
}

func TestRequireAuthNoCookie(t *testing.T) {
	fx := setupAuth(t)

	rec, ac := fx.capture(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ac != nil {
		t.Error("inner handler ran without a session")
	}
}

func TestRequireAuthUnknownToken(t *testing.T) {
	fx := setupAuth(t)

	rec, _ := fx.capture(t, "not-a-real-token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthResolvesFamily(t *testing.T) {
	fx := setupAuth(t)
	u, _ := fx.users.Create("alice@example.com", "Alice")
	f, _ := fx.families.CreateWithOwner("Family", u.ID)
	sess, _ := fx.sessions.Create(u.ID, f.ID)

	rec, ac := fx.capture(t, sess.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac == nil {
		t.Fatal("auth context missing")
	}
	if ac.UserID != u.ID || ac.FamilyID != f.ID {
		t.Errorf("context = %+v", ac)
	}
	if ac.Role != model.RoleOwner {
		t.Errorf("role = %q, want owner", ac.Role)
	}
}

func TestRequireAuthUnresolvedPicksOldestFamily(t *testing.T) {
	fx := setupAuth(t)
	u, _ := fx.users.Create("alice@example.com", "Alice")
	oldest, _ := fx.families.CreateWithOwner("First", u.ID)
	fx.families.CreateWithOwner("Second", u.ID)
	sess, _ := fx.sessions.Create(u.ID, 0)

	rec, ac := fx.capture(t, sess.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac.FamilyID != oldest.ID {
		t.Errorf("family_id = %d, want oldest %d", ac.FamilyID, oldest.ID)
	}

	// The resolution is written back to the session.
	updated, _ := fx.sessions.GetByToken(sess.Token)
	if updated.FamilyID != oldest.ID {
		t.Errorf("persisted family_id = %d, want %d", updated.FamilyID, oldest.ID)
	}
}

func TestRequireAuthStalePreferenceFallsBack(t *testing.T) {
	fx := setupAuth(t)
	u, _ := fx.users.Create("alice@example.com", "Alice")
	keep, _ := fx.families.CreateWithOwner("Keep", u.ID)
	gone, _ := fx.families.CreateWithOwner("Gone", u.ID)
	sess, _ := fx.sessions.Create(u.ID, gone.ID)

	if err := fx.families.DeleteCascade(gone.ID); err != nil {
		t.Fatalf("delete family: %v", err)
	}

	rec, ac := fx.capture(t, sess.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac.FamilyID != keep.ID {
		t.Errorf("family_id = %d, want surviving family %d", ac.FamilyID, keep.ID)
	}
}

func TestRequireAuthNoFamiliesPassesThrough(t *testing.T) {
	fx := setupAuth(t)
	u, _ := fx.users.Create("new@example.com", "New User")
	sess, _ := fx.sessions.Create(u.ID, 0)

	rec, ac := fx.capture(t, sess.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac == nil {
		t.Fatal("auth context missing")
	}
	if ac.FamilyID != 0 || ac.Role != "" {
		t.Errorf("context = %+v, want unresolved family", ac)
	}
}

func TestRequireFamily(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireFamily(inner)

	req := httptest.NewRequest("GET", "/api/events", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no family: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/events", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, FamilyID: 2, Role: model.RoleMember}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with family: status = %d, want 200", rec.Code)
	}
}
