package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"phone-availability/internal/calls"
	"phone-availability/internal/telephony"
)

// Recorder appends one record per completed or failed check.
type Recorder struct {
	repo  Repository
	clock func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, clock: time.Now}
}

// Record stores the check for the dialable number and returns it with its id.
func (r *Recorder) Record(ctx context.Context, req CheckRequest, dialable string, lookup telephony.LookupResult, verdict calls.Verdict) (Record, error) {
	if r == nil || r.repo == nil {
		return Record{}, errors.New("checks: repository not configured")
	}

	rec := Record{
		PhoneNumber: dialable,
		CountryCode: req.CountryCode,
		CountryISO2: req.CountryISO2,
		Carrier:     orUnknown(lookup.CarrierName),
		LineType:    orUnknown(lookup.LineType),
		IsAvailable: verdict.IsAvailable,
		RawResponse: asJSON(lookup.RawPayload),
		CreatedAt:   r.clock().UTC(),
	}
	return r.repo.Append(ctx, rec)
}

func orUnknown(s string) string {
	if s == "" {
		return telephony.Unknown
	}
	return s
}

// asJSON keeps valid JSON verbatim and stores anything else as a JSON string.
func asJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(raw)); err != nil {
		return nil
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n"))
}
