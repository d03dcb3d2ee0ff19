package checks

import (
	"encoding/json"
	"time"

	"phone-availability/internal/calls"
)

// Record is one stored phone check.
//
// Invariants:
// - Records are append-only; nothing updates or deletes them.
// - ID is assigned by the repository and strictly increases.
type Record struct {
	ID          int64  `json:"id" db:"id"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`
	CountryCode string `json:"countryCode" db:"country_code"`
	CountryISO2 string `json:"countryIso2" db:"country_iso2"`

	Carrier     string `json:"carrier" db:"carrier"`
	LineType    string `json:"lineType" db:"line_type"`
	IsAvailable bool   `json:"isAvailable" db:"is_available"`

	// RawResponse is the lookup payload, or the provider error body when the lookup failed.
	RawResponse json.RawMessage `json:"rawResponse,omitempty" db:"raw_response"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CheckRequest is one availability check as submitted by a caller.
type CheckRequest struct {
	CountryCode string
	CountryISO2 string
	PhoneNumber string
	FullNumber  string
}

// Result is a completed check.
type Result struct {
	Record  Record
	Outcome calls.Outcome
}
