package model

import "time"

type Medication struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Schedule  string    `json:"schedule"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MedicationLog records a single administered dose.
type MedicationLog struct {
	ID           int64     `json:"id"`
	FamilyID     int64     `json:"family_id"`
	MedicationID int64     `json:"medication_id"`
	TakenAt      time.Time `json:"taken_at"`
	Note         string    `json:"note"`
	LoggedBy     int64     `json:"logged_by"`
	CreatedAt    time.Time `json:"created_at"`
}
