package selector

import (
	"errors"
	"testing"
	"time"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/model"
)

func familiesFixture() []model.Family {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.Family{
		{ID: 3, Name: "Oldest", CreatedAt: base},
		{ID: 7, Name: "Middle", CreatedAt: base.Add(24 * time.Hour)},
		{ID: 5, Name: "Newest", CreatedAt: base.Add(48 * time.Hour)},
	}
}

func TestResolveNoMemberships(t *testing.T) {
	_, err := Resolve(Unresolved, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("resolve with no families: %v, want ErrNotFound", err)
	}
}

func TestResolveUnresolvedFallsBackToOldest(t *testing.T) {
	got, err := Resolve(Unresolved, familiesFixture())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 3 {
		t.Errorf("resolved family = %d, want 3 (oldest)", got)
	}
}

func TestResolveValidPreferenceSticks(t *testing.T) {
	got, err := Resolve(7, familiesFixture())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 7 {
		t.Errorf("resolved family = %d, want 7", got)
	}
}

func TestResolveStalePreferenceFallsBack(t *testing.T) {
	got, err := Resolve(42, familiesFixture())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 3 {
		t.Errorf("stale preference resolved to %d, want 3 (oldest)", got)
	}
}

func TestSwitchToMemberFamily(t *testing.T) {
	got, err := Switch(5, familiesFixture())
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got != 5 {
		t.Errorf("switched to %d, want 5", got)
	}
}

func TestSwitchRefusesNonMemberFamily(t *testing.T) {
	_, err := Switch(42, familiesFixture())
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("switch to non-member family: %v, want ErrForbidden", err)
	}

	_, err = Switch(1, nil)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("switch with no memberships: %v, want ErrForbidden", err)
	}
}
