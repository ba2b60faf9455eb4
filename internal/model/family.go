package model

import "time"

// Membership roles. A family has exactly one owner; members share content
// management; caregivers read plus log operational records.
const (
	RoleOwner     = "owner"
	RoleMember    = "member"
	RoleCaregiver = "caregiver"
)

// ValidRole reports whether s is one of the known membership roles.
func ValidRole(s string) bool {
	return s == RoleOwner || s == RoleMember || s == RoleCaregiver
}

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership is the (family, user, role) relation. It is the sole source of
// access truth; everything else (session state, client preferences) is a hint.
type Membership struct {
	ID       int64     `json:"id"`
	FamilyID int64     `json:"family_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
