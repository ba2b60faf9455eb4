package store

import "testing"

func TestSessionCreate(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	u := createTestUser(t, db, "alice@example.com")

	sess, err := ss.Create(u.ID, 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected non-empty token")
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}
	if sess.FamilyID != 0 {
		t.Errorf("family_id = %d, want 0 (unresolved)", sess.FamilyID)
	}
}

func TestSessionGetByToken(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	u := createTestUser(t, db, "alice@example.com")
	created, _ := ss.Create(u.ID, 0)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}
}

func TestSessionGetByTokenUnknown(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)

	sess, err := ss.GetByToken("deadbeef")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for unknown token, got %+v", sess)
	}
}

func TestSessionUpdateFamilyID(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	fs := NewFamilyStore(db)
	u := createTestUser(t, db, "alice@example.com")
	f, _ := fs.CreateWithOwner("Family", u.ID)
	created, _ := ss.Create(u.ID, 0)

	if err := ss.UpdateFamilyID(created.ID, f.ID); err != nil {
		t.Fatalf("update family id: %v", err)
	}
	sess, _ := ss.GetByToken(created.Token)
	if sess.FamilyID != f.ID {
		t.Errorf("family_id = %d, want %d", sess.FamilyID, f.ID)
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	u := createTestUser(t, db, "alice@example.com")
	created, _ := ss.Create(u.ID, 0)

	if err := ss.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sess, _ := ss.GetByToken(created.Token)
	if sess != nil {
		t.Error("session still retrievable after delete")
	}
}

func TestSessionDeleteByUserID(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	a1, _ := ss.Create(alice.ID, 0)
	a2, _ := ss.Create(alice.ID, 0)
	b1, _ := ss.Create(bob.ID, 0)

	if err := ss.DeleteByUserID(alice.ID); err != nil {
		t.Fatalf("delete by user id: %v", err)
	}
	for _, token := range []string{a1.Token, a2.Token} {
		if sess, _ := ss.GetByToken(token); sess != nil {
			t.Error("alice session survived")
		}
	}
	if sess, _ := ss.GetByToken(b1.Token); sess == nil {
		t.Error("bob session deleted")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	u := createTestUser(t, db, "alice@example.com")
	live, _ := ss.Create(u.ID, 0)

	if _, err := db.Exec(
		`INSERT INTO sessions (token, user_id, family_id, expires_at) VALUES ('stale', ?, 0, datetime('now', '-1 day'))`,
		u.ID,
	); err != nil {
		t.Fatalf("insert stale session: %v", err)
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if sess, _ := ss.GetByToken(live.Token); sess == nil {
		t.Error("live session deleted")
	}
}
